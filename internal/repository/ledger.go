package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/model"
)

// TxManager opens the all-or-nothing unit of work the transfer engine runs
// stage 5 under.
type TxManager interface {
	BeginTx(ctx context.Context) (LedgerTx, error)
}

// LedgerTx scopes every write of a transfer to one database transaction.
// GetWalletForUpdate takes a row lock held until Commit or Rollback.
type LedgerTx interface {
	Commit() error
	Rollback() error
	GetWalletForUpdate(ctx context.Context, address string) (*model.Wallet, error)
	CreateWallet(ctx context.Context, wallet *model.Wallet) error
	ClearPrimaryWallet(ctx context.Context, userID uuid.UUID) error
	UpdateWalletBalance(ctx context.Context, id uuid.UUID, newBalance decimal.Decimal) error
	CreateTransaction(ctx context.Context, transaction *model.Transaction) error
}

type txManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) BeginTx(ctx context.Context) (LedgerTx, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &ledgerTx{Tx: tx}, nil
}

type ledgerTx struct {
	*sqlx.Tx
}

func (t *ledgerTx) GetWalletForUpdate(ctx context.Context, address string) (*model.Wallet, error) {
	var wallet model.Wallet
	query := `SELECT * FROM wallets WHERE LOWER(address) = LOWER($1) FOR UPDATE`
	err := t.Tx.GetContext(ctx, &wallet, query, address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFound("repository.GetWalletForUpdate", "wallet")
		}
		return nil, fmt.Errorf("failed to get wallet for update: %w", err)
	}
	return &wallet, nil
}

func (t *ledgerTx) CreateWallet(ctx context.Context, wallet *model.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, address, mnemonic_encrypted, balance, wallet_name, is_primary)
	          VALUES (:id, :user_id, :address, :mnemonic_encrypted, :balance, :wallet_name, :is_primary)`
	_, err := t.Tx.NamedExecContext(ctx, query, wallet)
	return err
}

func (t *ledgerTx) ClearPrimaryWallet(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE wallets SET is_primary = FALSE, updated_at = NOW()
	          WHERE user_id = $1 AND is_primary = TRUE`
	_, err := t.Tx.ExecContext(ctx, query, userID)
	return err
}

func (t *ledgerTx) UpdateWalletBalance(ctx context.Context, id uuid.UUID, newBalance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`
	_, err := t.Tx.ExecContext(ctx, query, newBalance, id)
	return err
}

func (t *ledgerTx) CreateTransaction(ctx context.Context, transaction *model.Transaction) error {
	query := `INSERT INTO transactions
	          (id, from_address, to_address, amount, amount_usd, signature, message_hash, status, transaction_hash, gas_fee, created_at)
	          VALUES (:id, :from_address, :to_address, :amount, :amount_usd, :signature, :message_hash, :status, :transaction_hash, :gas_fee, :created_at)`
	_, err := t.Tx.NamedExecContext(ctx, query, transaction)
	return err
}
