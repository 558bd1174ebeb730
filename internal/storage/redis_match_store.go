package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taxlot/matcher/internal/types"
)

const matchesKey = "matches:recent"

// RedisMatchStore implements MatchStore using a Redis sorted set scored by
// close time, with FIFO eviction past MaxMatches.
type RedisMatchStore struct {
	client     *redis.Client
	maxMatches int
}

// NewRedisMatchStore creates a Redis-backed match store.
func NewRedisMatchStore(cfg RedisConfig) (*RedisMatchStore, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &RedisMatchStore{client: client, maxMatches: cfg.MaxMatches}, nil
}

func (s *RedisMatchStore) Save(match *types.Match) error {
	return s.SaveBatch([]*types.Match{match})
}

func (s *RedisMatchStore) SaveBatch(matches []*types.Match) error {
	if len(matches) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pipe := s.client.Pipeline()
	for _, match := range matches {
		data, err := json.Marshal(match)
		if err != nil {
			return err
		}
		pipe.ZAdd(ctx, matchesKey, redis.Z{
			Score:  float64(match.CloseTime.UnixNano()),
			Member: data,
		})
	}
	pipe.ZRemRangeByRank(ctx, matchesKey, 0, int64(-s.maxMatches-1))

	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisMatchStore) GetRecent(limit int) ([]*types.Match, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = s.maxMatches
	}
	rows, err := s.client.ZRevRange(ctx, matchesKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	matches := make([]*types.Match, 0, len(rows))
	for _, row := range rows {
		var m types.Match
		if err := json.Unmarshal([]byte(row), &m); err != nil {
			continue
		}
		matches = append(matches, &m)
	}
	return matches, nil
}

func (s *RedisMatchStore) Close() error {
	return s.client.Close()
}
