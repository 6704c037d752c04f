package concurrency

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	walleterrors "github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/keyring"
	"github.com/cypherd/walletBackend/internal/message"
	"github.com/cypherd/walletBackend/internal/model"
	"github.com/cypherd/walletBackend/internal/repository"
	"github.com/cypherd/walletBackend/internal/service"
)

// memoryLedger emulates the database's serialization guarantees: one big
// lock plays the role of the row locks, so transfers execute one at a time
// and either commit fully or leave no trace.
type memoryLedger struct {
	mu           sync.Mutex
	wallets      map[string]*model.Wallet
	transactions []model.Transaction
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{wallets: make(map[string]*model.Wallet)}
}

func (l *memoryLedger) addWallet(address, balance string) uuid.UUID {
	id := uuid.New()
	l.wallets[strings.ToLower(address)] = &model.Wallet{
		ID:      id,
		Address: address,
		Balance: decimal.RequireFromString(balance),
	}
	return id
}

func (l *memoryLedger) balanceOf(address string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.wallets[strings.ToLower(address)]; ok {
		return w.Balance
	}
	return decimal.Zero
}

func (l *memoryLedger) BeginTx(ctx context.Context) (repository.LedgerTx, error) {
	l.mu.Lock()
	return &memoryTx{
		ledger:  l,
		pending: make(map[uuid.UUID]decimal.Decimal),
	}, nil
}

// memoryTx buffers writes and applies them on Commit only.
type memoryTx struct {
	ledger     *memoryLedger
	pending    map[uuid.UUID]decimal.Decimal
	created    []*model.Wallet
	inserted   []model.Transaction
	terminated bool
}

func (t *memoryTx) Commit() error {
	for _, w := range t.created {
		copied := *w
		t.ledger.wallets[strings.ToLower(w.Address)] = &copied
	}
	for id, balance := range t.pending {
		for _, w := range t.ledger.wallets {
			if w.ID == id {
				w.Balance = balance
			}
		}
	}
	t.ledger.transactions = append(t.ledger.transactions, t.inserted...)
	t.finish()
	return nil
}

func (t *memoryTx) Rollback() error {
	t.finish()
	return nil
}

func (t *memoryTx) finish() {
	if !t.terminated {
		t.terminated = true
		t.ledger.mu.Unlock()
	}
}

func (t *memoryTx) GetWalletForUpdate(ctx context.Context, address string) (*model.Wallet, error) {
	if w, ok := t.ledger.wallets[strings.ToLower(address)]; ok {
		copied := *w
		return &copied, nil
	}
	for _, w := range t.created {
		if strings.EqualFold(w.Address, address) {
			copied := *w
			return &copied, nil
		}
	}
	return nil, walleterrors.NewNotFound("memoryTx.GetWalletForUpdate", "wallet")
}

func (t *memoryTx) CreateWallet(ctx context.Context, wallet *model.Wallet) error {
	copied := *wallet
	t.created = append(t.created, &copied)
	return nil
}

func (t *memoryTx) ClearPrimaryWallet(ctx context.Context, userID uuid.UUID) error {
	for _, w := range t.ledger.wallets {
		if w.UserID != nil && *w.UserID == userID {
			w.IsPrimary = false
		}
	}
	return nil
}

func (t *memoryTx) UpdateWalletBalance(ctx context.Context, id uuid.UUID, newBalance decimal.Decimal) error {
	t.pending[id] = newBalance
	return nil
}

func (t *memoryTx) CreateTransaction(ctx context.Context, transaction *model.Transaction) error {
	t.inserted = append(t.inserted, *transaction)
	return nil
}

func signedTransfer(t *testing.T, amount string) (msg, sig, from, to string) {
	t.Helper()

	keys := keyring.New("concurrency-test-secret")
	const mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	account, err := keys.DeriveAccount(mnemonic, 0)
	require.NoError(t, err)

	to = "0x2222222222222222222222222222222222222222"
	msg, err = message.Encode(account.Address, to, decimal.RequireFromString(amount), nil)
	require.NoError(t, err)

	signed, err := keyring.SignMessage(account.PrivateKey, msg)
	require.NoError(t, err)
	return msg, signed.Signature, account.Address, to
}

// N goroutines race the same signed 1 ETH transfer against a sender holding
// N-1 ETH. Exactly one must fail with INSUFFICIENT_FUND, the rest commit,
// and the sender never goes negative.
func TestConcurrentTransfersNeverOverdraw(t *testing.T) {
	const workers = 10

	msg, sig, from, to := signedTransfer(t, "1")

	ledger := newMemoryLedger()
	ledger.addWallet(from, "9") // workers-1
	ledger.addWallet(to, "0")

	svc := service.NewTransferService(ledger, zap.NewNop())

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ExecuteTransfer(context.Background(), msg, sig, from)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, insufficient int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.Equal(t, walleterrors.InsufficientFund, walleterrors.TypeOf(err))
		insufficient++
	}

	assert.Equal(t, workers-1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.True(t, ledger.balanceOf(from).IsZero(), "sender balance: %s", ledger.balanceOf(from))
	assert.True(t, ledger.balanceOf(to).Equal(decimal.NewFromInt(workers-1)))
	assert.Len(t, ledger.transactions, workers-1)
}

// Two opposing transfers between the same pair of wallets must both settle
// and conserve the total supply.
func TestOpposingTransfersConserveTotal(t *testing.T) {
	keys := keyring.New("concurrency-test-secret")
	const mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	alice, err := keys.DeriveAccount(mnemonic, 0)
	require.NoError(t, err)
	bob, err := keys.DeriveAccount(mnemonic, 1)
	require.NoError(t, err)

	ledger := newMemoryLedger()
	ledger.addWallet(alice.Address, "5")
	ledger.addWallet(bob.Address, "5")

	svc := service.NewTransferService(ledger, zap.NewNop())

	sign := func(account *keyring.Account, to, amount string) (string, string) {
		msg, err := message.Encode(account.Address, to, decimal.RequireFromString(amount), nil)
		require.NoError(t, err)
		signed, err := keyring.SignMessage(account.PrivateKey, msg)
		require.NoError(t, err)
		return msg, signed.Signature
	}

	aliceMsg, aliceSig := sign(alice, bob.Address, "2")
	bobMsg, bobSig := sign(bob, alice.Address, "3")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.ExecuteTransfer(context.Background(), aliceMsg, aliceSig, alice.Address)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := svc.ExecuteTransfer(context.Background(), bobMsg, bobSig, bob.Address)
		assert.NoError(t, err)
	}()
	wg.Wait()

	assert.True(t, ledger.balanceOf(alice.Address).Equal(decimal.NewFromInt(6)))
	assert.True(t, ledger.balanceOf(bob.Address).Equal(decimal.NewFromInt(4)))
	total := ledger.balanceOf(alice.Address).Add(ledger.balanceOf(bob.Address))
	assert.True(t, total.Equal(decimal.NewFromInt(10)))
}

// An incoming transfer to an unknown address creates the external wallet in
// the same committed unit of work, exactly once even under racing submits.
func TestRacingTransfersToNewExternalWallet(t *testing.T) {
	const workers = 5

	msg, sig, from, to := signedTransfer(t, "0.5")

	ledger := newMemoryLedger()
	ledger.addWallet(from, "100")

	svc := service.NewTransferService(ledger, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ExecuteTransfer(context.Background(), msg, sig, from)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, ledger.balanceOf(to).Equal(decimal.RequireFromString("2.5")))
	assert.True(t, ledger.balanceOf(from).Equal(decimal.RequireFromString("97.5")))
}
