package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/model"
)

type TransactionRepository interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	GetTransactionsByAddress(ctx context.Context, address, status string, limit, offset int) ([]model.Transaction, error)
	CountTransactionsByAddress(ctx context.Context, address, status string) (int, error)
	GetAllTransactionsByAddress(ctx context.Context, address string) ([]model.Transaction, error)
	GetRecentTransactions(ctx context.Context, addresses []string, limit int) ([]model.Transaction, error)
}

type transactionRepo struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	query := `SELECT * FROM transactions WHERE id = $1`
	err := r.db.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFound("repository.GetTransaction", "transaction")
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &transaction, nil
}

func (r *transactionRepo) GetTransactionsByAddress(ctx context.Context, address, status string, limit, offset int) ([]model.Transaction, error) {
	var transactions []model.Transaction
	query := `SELECT * FROM transactions
	          WHERE (LOWER(from_address) = LOWER($1) OR LOWER(to_address) = LOWER($1))
	            AND ($2 = '' OR status = $2)
	          ORDER BY created_at DESC
	          LIMIT $3 OFFSET $4`
	err := r.db.SelectContext(ctx, &transactions, query, address, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, nil
}

func (r *transactionRepo) CountTransactionsByAddress(ctx context.Context, address, status string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM transactions
	          WHERE (LOWER(from_address) = LOWER($1) OR LOWER(to_address) = LOWER($1))
	            AND ($2 = '' OR status = $2)`
	err := r.db.GetContext(ctx, &count, query, address, status)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (r *transactionRepo) GetAllTransactionsByAddress(ctx context.Context, address string) ([]model.Transaction, error) {
	var transactions []model.Transaction
	query := `SELECT * FROM transactions
	          WHERE LOWER(from_address) = LOWER($1) OR LOWER(to_address) = LOWER($1)
	          ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &transactions, query, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, nil
}

// buildRecentTransactionsQuery expands the address set into an IN query.
// Rows store addresses in whatever case the client submitted, so both sides
// of the comparison are lowered.
func buildRecentTransactionsQuery(addresses []string, limit int) (string, []interface{}, error) {
	lowered := make([]string, len(addresses))
	for i, address := range addresses {
		lowered[i] = strings.ToLower(address)
	}
	return sqlx.In(`SELECT * FROM transactions
	          WHERE LOWER(from_address) IN (?) OR LOWER(to_address) IN (?)
	          ORDER BY created_at DESC
	          LIMIT ?`, lowered, lowered, limit)
}

func (r *transactionRepo) GetRecentTransactions(ctx context.Context, addresses []string, limit int) ([]model.Transaction, error) {
	if len(addresses) == 0 {
		return []model.Transaction{}, nil
	}
	query, args, err := buildRecentTransactionsQuery(addresses, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build recent transactions query: %w", err)
	}
	query = r.db.Rebind(query)

	var transactions []model.Transaction
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get recent transactions: %w", err)
	}
	return transactions, nil
}
