package unit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/cypherd/walletBackend/internal/model"
	"github.com/cypherd/walletBackend/internal/repository"
)

type mockTxManager struct {
	mock.Mock
}

func (m *mockTxManager) BeginTx(ctx context.Context) (repository.LedgerTx, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repository.LedgerTx), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockLedgerTx struct {
	mock.Mock
}

func (m *mockLedgerTx) Commit() error {
	return m.Called().Error(0)
}

func (m *mockLedgerTx) Rollback() error {
	return m.Called().Error(0)
}

func (m *mockLedgerTx) GetWalletForUpdate(ctx context.Context, address string) (*model.Wallet, error) {
	args := m.Called(ctx, address)
	if w := args.Get(0); w != nil {
		return w.(*model.Wallet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerTx) CreateWallet(ctx context.Context, wallet *model.Wallet) error {
	return m.Called(ctx, wallet).Error(0)
}

func (m *mockLedgerTx) ClearPrimaryWallet(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockLedgerTx) UpdateWalletBalance(ctx context.Context, id uuid.UUID, newBalance decimal.Decimal) error {
	return m.Called(ctx, id, newBalance).Error(0)
}

func (m *mockLedgerTx) CreateTransaction(ctx context.Context, transaction *model.Transaction) error {
	return m.Called(ctx, transaction).Error(0)
}

type mockWalletRepo struct {
	mock.Mock
}

func (m *mockWalletRepo) GetWallet(ctx context.Context, id uuid.UUID) (*model.Wallet, error) {
	args := m.Called(ctx, id)
	if w := args.Get(0); w != nil {
		return w.(*model.Wallet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWalletRepo) GetWalletByAddress(ctx context.Context, address string) (*model.Wallet, error) {
	args := m.Called(ctx, address)
	if w := args.Get(0); w != nil {
		return w.(*model.Wallet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWalletRepo) GetWalletsByUser(ctx context.Context, userID uuid.UUID) ([]model.Wallet, error) {
	args := m.Called(ctx, userID)
	if w := args.Get(0); w != nil {
		return w.([]model.Wallet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWalletRepo) CountWalletsByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, patch model.ProfilePatch) error {
	return m.Called(ctx, id, patch).Error(0)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

type mockPriceCacheRepo struct {
	mock.Mock
}

func (m *mockPriceCacheRepo) GetFreshPrice(ctx context.Context, pair string, maxAge time.Duration) (*model.PriceCache, error) {
	args := m.Called(ctx, pair, maxAge)
	if p := args.Get(0); p != nil {
		return p.(*model.PriceCache), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPriceCacheRepo) ReplacePrice(ctx context.Context, pair string, price decimal.Decimal) error {
	return m.Called(ctx, pair, price).Error(0)
}

type mockTransactionRepo struct {
	mock.Mock
}

func (m *mockTransactionRepo) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*model.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionRepo) GetTransactionsByAddress(ctx context.Context, address, status string, limit, offset int) ([]model.Transaction, error) {
	args := m.Called(ctx, address, status, limit, offset)
	if t := args.Get(0); t != nil {
		return t.([]model.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionRepo) CountTransactionsByAddress(ctx context.Context, address, status string) (int, error) {
	args := m.Called(ctx, address, status)
	return args.Int(0), args.Error(1)
}

func (m *mockTransactionRepo) GetAllTransactionsByAddress(ctx context.Context, address string) ([]model.Transaction, error) {
	args := m.Called(ctx, address)
	if t := args.Get(0); t != nil {
		return t.([]model.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionRepo) GetRecentTransactions(ctx context.Context, addresses []string, limit int) ([]model.Transaction, error) {
	args := m.Called(ctx, addresses, limit)
	if t := args.Get(0); t != nil {
		return t.([]model.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}
