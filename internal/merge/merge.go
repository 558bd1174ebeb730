// Package merge coalesces adjacent same-side executions of one currency that
// fall within a configurable time window, so a burst of partial fills reports
// as a single lot.
package merge

import (
	"time"

	"github.com/taxlot/matcher/internal/types"
)

// Coalesce merges eligible executions and returns the reduced stream.
//
// Two executions merge when they are adjacent in their currency's stream,
// have the same side, and their timestamps are within window of each other.
// The window chains: each link is measured against the previously absorbed
// execution, so a run of N fills each close to its neighbor collapses to one.
// An opposite-side execution or a transfer is a barrier; merging never
// crosses it, since that would corrupt matching order. A zero window returns
// the input unchanged.
//
// Merging combines quantities, takes the quantity-weighted average price,
// sums fees, and records the originals on the survivor for audit output.
// Re-applying the same window to an already-merged stream is a no-op.
func Coalesce(executions []*types.Execution, window time.Duration) []*types.Execution {
	if window <= 0 {
		return executions
	}

	// last surviving execution and last absorbed timestamp per currency
	last := make(map[string]*types.Execution)
	lastTime := make(map[string]time.Time)

	out := executions[:0:0]
	for _, e := range executions {
		prev := last[e.Asset]
		if prev != nil && e.Side != types.Transfer && prev.Side == e.Side &&
			e.Time.Sub(lastTime[e.Asset]) <= window {
			prev.Absorb(e)
			lastTime[e.Asset] = e.Time
			continue
		}
		out = append(out, e)
		last[e.Asset] = e
		lastTime[e.Asset] = e.Time
		if e.Side == types.Transfer {
			// a transfer blocks merging across it
			last[e.Asset] = nil
		}
	}
	return out
}
