package storage

import "github.com/taxlot/matcher/internal/types"

// CompositeMatchStore fans out to multiple MatchStore implementations.
// Writes go to ALL stores, reads come from the FIRST store that has data.
type CompositeMatchStore struct {
	stores []MatchStore
}

// NewCompositeMatchStore creates a composite store from multiple stores.
func NewCompositeMatchStore(stores ...MatchStore) *CompositeMatchStore {
	return &CompositeMatchStore{stores: stores}
}

func (c *CompositeMatchStore) Save(match *types.Match) error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Save(match); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeMatchStore) SaveBatch(matches []*types.Match) error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.SaveBatch(matches); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeMatchStore) GetRecent(limit int) ([]*types.Match, error) {
	for _, store := range c.stores {
		matches, err := store.GetRecent(limit)
		if err != nil {
			continue
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}
	return []*types.Match{}, nil
}

func (c *CompositeMatchStore) Close() error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
