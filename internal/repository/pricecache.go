package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/model"
)

type PriceCacheRepository interface {
	// GetFreshPrice returns the cached entry for the pair if it is younger
	// than maxAge.
	GetFreshPrice(ctx context.Context, pair string, maxAge time.Duration) (*model.PriceCache, error)
	// ReplacePrice removes all prior rows for the pair and inserts one fresh
	// row, within a single transaction.
	ReplacePrice(ctx context.Context, pair string, price decimal.Decimal) error
}

type priceCacheRepo struct {
	db *sqlx.DB
}

func NewPriceCacheRepository(db *sqlx.DB) PriceCacheRepository {
	return &priceCacheRepo{db: db}
}

func (r *priceCacheRepo) GetFreshPrice(ctx context.Context, pair string, maxAge time.Duration) (*model.PriceCache, error) {
	var entry model.PriceCache
	query := `SELECT * FROM price_cache WHERE pair = $1 ORDER BY timestamp DESC LIMIT 1`
	err := r.db.GetContext(ctx, &entry, query, pair)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFound("repository.GetFreshPrice", "cached price")
		}
		return nil, fmt.Errorf("failed to get cached price: %w", err)
	}
	if time.Since(entry.Timestamp) >= maxAge {
		return nil, errors.NewNotFound("repository.GetFreshPrice", "fresh cached price")
	}
	return &entry, nil
}

func (r *priceCacheRepo) ReplacePrice(ctx context.Context, pair string, price decimal.Decimal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM price_cache WHERE pair = $1`, pair); err != nil {
		return fmt.Errorf("failed to remove stale cache entries: %w", err)
	}
	query := `INSERT INTO price_cache (id, pair, price, timestamp) VALUES ($1, $2, $3, NOW())`
	if _, err := tx.ExecContext(ctx, query, uuid.New(), pair, price); err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return tx.Commit()
}
