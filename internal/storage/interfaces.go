// Package storage persists emitted matches. The report on stdout is the
// primary output; stores are an optional audit trail so a run's matches can
// be queried after the fact. Backends mirror each other behind MatchStore
// and compose through CompositeMatchStore.
package storage

import "github.com/taxlot/matcher/internal/types"

// MatchStore abstracts match persistence. Implementations can be in-memory,
// an append-only file, Redis, PostgreSQL, etc.
type MatchStore interface {
	// Save persists a single match
	Save(match *types.Match) error

	// SaveBatch persists multiple matches (useful for database batch inserts)
	SaveBatch(matches []*types.Match) error

	// GetRecent retrieves the N most recently closed matches
	GetRecent(limit int) ([]*types.Match, error)

	// Close releases any resources held by the store
	Close() error
}
