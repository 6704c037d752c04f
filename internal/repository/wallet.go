package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/model"
)

// IsUniqueViolation reports whether err is a Postgres unique-index violation,
// so callers can surface a conflict instead of an internal error when a
// pre-insert existence check loses a race.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == "23505"
}

// WalletRepository is the read side of the wallet table. All inserts and the
// primary-flag handover go through LedgerTx so they commit atomically.
type WalletRepository interface {
	GetWallet(ctx context.Context, id uuid.UUID) (*model.Wallet, error)
	GetWalletByAddress(ctx context.Context, address string) (*model.Wallet, error)
	GetWalletsByUser(ctx context.Context, userID uuid.UUID) ([]model.Wallet, error)
	CountWalletsByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type walletRepo struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &walletRepo{db: db}
}

func (r *walletRepo) GetWallet(ctx context.Context, id uuid.UUID) (*model.Wallet, error) {
	var wallet model.Wallet
	query := `SELECT * FROM wallets WHERE id = $1`
	err := r.db.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFound("repository.GetWallet", "wallet")
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepo) GetWalletByAddress(ctx context.Context, address string) (*model.Wallet, error) {
	var wallet model.Wallet
	query := `SELECT * FROM wallets WHERE LOWER(address) = LOWER($1)`
	err := r.db.GetContext(ctx, &wallet, query, address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFound("repository.GetWalletByAddress", "wallet")
		}
		return nil, fmt.Errorf("failed to get wallet by address: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepo) GetWalletsByUser(ctx context.Context, userID uuid.UUID) ([]model.Wallet, error) {
	var wallets []model.Wallet
	query := `SELECT * FROM wallets WHERE user_id = $1 ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &wallets, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user wallets: %w", err)
	}
	return wallets, nil
}

func (r *walletRepo) CountWalletsByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM wallets WHERE user_id = $1`
	err := r.db.GetContext(ctx, &count, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count user wallets: %w", err)
	}
	return count, nil
}
