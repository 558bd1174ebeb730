package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/taxlot/matcher/internal/types"
)

const matchesSchema = `
CREATE TABLE IF NOT EXISTS matches (
	id             BIGSERIAL PRIMARY KEY,
	asset          TEXT        NOT NULL,
	settle_side    TEXT        NOT NULL,
	quantity       NUMERIC     NOT NULL,
	exchange_open  TEXT        NOT NULL,
	exchange_close TEXT        NOT NULL,
	open_time      TIMESTAMP   NOT NULL,
	close_time     TIMESTAMP   NOT NULL,
	amount_open    NUMERIC     NOT NULL,
	amount_close   NUMERIC     NOT NULL,
	fee_open       NUMERIC     NOT NULL,
	fee_close      NUMERIC     NOT NULL,
	merged         BOOLEAN     NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_close_time ON matches (close_time);
CREATE INDEX IF NOT EXISTS idx_matches_asset ON matches (asset);
`

// PostgresMatchStore implements MatchStore using PostgreSQL.
type PostgresMatchStore struct {
	pool *pgxpool.Pool
}

// NewPostgresMatchStore creates a PostgreSQL-backed match store, ensuring
// the schema exists.
func NewPostgresMatchStore(cfg PostgresConfig) (*PostgresMatchStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, matchesSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create matches schema: %w", err)
	}

	return &PostgresMatchStore{pool: pool}, nil
}

const insertMatch = `
	INSERT INTO matches (asset, settle_side, quantity, exchange_open, exchange_close,
		open_time, close_time, amount_open, amount_close, fee_open, fee_close, merged)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

func (s *PostgresMatchStore) Save(match *types.Match) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, insertMatch,
		match.Asset, string(match.SettleSide), match.Quantity,
		match.ExchangeOpen, match.ExchangeClose,
		match.OpenTime, match.CloseTime,
		match.AmountOpen, match.AmountClose, match.FeeOpen, match.FeeClose,
		match.Merged,
	)
	return err
}

func (s *PostgresMatchStore) SaveBatch(matches []*types.Match) error {
	if len(matches) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, match := range matches {
		batch.Queue(insertMatch,
			match.Asset, string(match.SettleSide), match.Quantity,
			match.ExchangeOpen, match.ExchangeClose,
			match.OpenTime, match.CloseTime,
			match.AmountOpen, match.AmountClose, match.FeeOpen, match.FeeClose,
			match.Merged,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range matches {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed: %w", err)
		}
	}
	return nil
}

func (s *PostgresMatchStore) GetRecent(limit int) ([]*types.Match, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT asset, settle_side, quantity, exchange_open, exchange_close,
			open_time, close_time, amount_open, amount_close, fee_open, fee_close, merged
		FROM matches ORDER BY close_time DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*types.Match
	for rows.Next() {
		var m types.Match
		var side string
		var quantity, amountOpen, amountClose, feeOpen, feeClose decimal.Decimal
		if err := rows.Scan(&m.Asset, &side, &quantity, &m.ExchangeOpen, &m.ExchangeClose,
			&m.OpenTime, &m.CloseTime, &amountOpen, &amountClose, &feeOpen, &feeClose, &m.Merged); err != nil {
			return nil, err
		}
		m.SettleSide = types.Side(side)
		m.Quantity = quantity
		m.AmountOpen = amountOpen
		m.AmountClose = amountClose
		m.FeeOpen = feeOpen
		m.FeeClose = feeClose
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

func (s *PostgresMatchStore) Close() error {
	s.pool.Close()
	return nil
}
