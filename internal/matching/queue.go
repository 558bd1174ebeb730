package matching

import "github.com/taxlot/matcher/internal/types"

// lotQueue is one currency's sequence of open executions. Arrivals always
// push at the tail; the configured strategy decides which end closing
// executions consume from, so a single matching loop serves both FIFO and
// LIFO.
type lotQueue struct {
	items    []*types.Execution
	strategy types.Strategy
}

func newLotQueue(strategy types.Strategy) *lotQueue {
	return &lotQueue{strategy: strategy}
}

func (q *lotQueue) len() int { return len(q.items) }

// push appends an arriving execution at the tail.
func (q *lotQueue) push(e *types.Execution) {
	q.items = append(q.items, e)
}

// peek returns the next lot to be consumed without removing it.
func (q *lotQueue) peek() *types.Execution {
	if q.strategy == types.LIFO {
		return q.items[len(q.items)-1]
	}
	return q.items[0]
}

// take removes and returns the next lot to be consumed: the head under FIFO
// (oldest open lot first), the tail under LIFO (newest first).
func (q *lotQueue) take() *types.Execution {
	if q.strategy == types.LIFO {
		e := q.items[len(q.items)-1]
		q.items = q.items[:len(q.items)-1]
		return e
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e
}

// putBack restores a partially consumed lot to the consuming end.
func (q *lotQueue) putBack(e *types.Execution) {
	if q.strategy == types.LIFO {
		q.items = append(q.items, e)
		return
	}
	q.items = append([]*types.Execution{e}, q.items...)
}
