package unit

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/keyring"
	"github.com/cypherd/walletBackend/internal/model"
	"github.com/cypherd/walletBackend/internal/service"
)

type mockPriceService struct {
	mock.Mock
}

func (m *mockPriceService) GetCurrentPrice(ctx context.Context) (*model.PriceQuote, error) {
	args := m.Called(ctx)
	if q := args.Get(0); q != nil {
		return q.(*model.PriceQuote), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPriceService) ConvertUSDToETH(ctx context.Context, usdAmount decimal.Decimal) (*model.Conversion, error) {
	args := m.Called(ctx, usdAmount)
	if c := args.Get(0); c != nil {
		return c.(*model.Conversion), args.Error(1)
	}
	return nil, args.Error(1)
}

type walletFixture struct {
	walletRepo *mockWalletRepo
	userRepo   *mockUserRepo
	txManager  *mockTxManager
	prices     *mockPriceService
	keys       *keyring.Keyring
	svc        service.WalletService
	userID     uuid.UUID
}

func newWalletFixture(t *testing.T) *walletFixture {
	t.Helper()
	f := &walletFixture{
		walletRepo: new(mockWalletRepo),
		userRepo:   new(mockUserRepo),
		txManager:  new(mockTxManager),
		prices:     new(mockPriceService),
		keys:       keyring.New("test-secret"),
		userID:     uuid.New(),
	}
	f.svc = service.NewWalletService(f.walletRepo, f.userRepo, f.txManager, f.keys, f.prices, zap.NewNop())
	return f
}

func (f *walletFixture) userExists() {
	f.userRepo.On("GetUser", mock.Anything, f.userID).
		Return(&model.User{ID: f.userID, Email: "user@example.com", IsActive: true}, nil)
}

// insertTx stubs the transactional insert path with a committing LedgerTx.
func (f *walletFixture) insertTx() *mockLedgerTx {
	tx := new(mockLedgerTx)
	f.txManager.On("BeginTx", mock.Anything).Return(tx, nil)
	return tx
}

func TestCreateWalletReturnsMnemonicOnce(t *testing.T) {
	f := newWalletFixture(t)
	f.userExists()
	f.walletRepo.On("CountWalletsByUser", mock.Anything, f.userID).Return(0, nil)
	tx := f.insertTx()
	tx.On("CreateWallet", mock.Anything, mock.MatchedBy(func(w *model.Wallet) bool {
		return w.UserID != nil && *w.UserID == f.userID &&
			strings.HasPrefix(w.Address, "0x") &&
			w.MnemonicEncrypted != "" &&
			w.WalletName == "Wallet 1"
	})).Return(nil)
	tx.On("Commit").Return(nil)

	created, err := f.svc.CreateWallet(context.Background(), f.userID, "", false)
	require.NoError(t, err)

	assert.True(t, f.keys.ValidateMnemonic(created.Mnemonic))
	assert.True(t, created.StartingBalance.GreaterThanOrEqual(decimal.NewFromInt(1)))
	assert.True(t, created.StartingBalance.LessThan(decimal.NewFromInt(10)))
	assert.Empty(t, created.Wallet.Mnemonic)

	// the stored ciphertext decrypts back to the returned mnemonic
	account, err := f.keys.DeriveAccount(created.Mnemonic, 0)
	require.NoError(t, err)
	assert.Equal(t, account.Address, created.Wallet.Address)
	tx.AssertExpectations(t)
	tx.AssertNotCalled(t, "ClearPrimaryWallet", mock.Anything, mock.Anything)
}

func TestCreateWalletPrimaryClearsExistingPrimaryInSameTx(t *testing.T) {
	f := newWalletFixture(t)
	f.userExists()
	tx := f.insertTx()
	tx.On("ClearPrimaryWallet", mock.Anything, f.userID).Return(nil)
	tx.On("CreateWallet", mock.Anything, mock.Anything).Return(nil)
	tx.On("Commit").Return(nil)

	_, err := f.svc.CreateWallet(context.Background(), f.userID, "Savings", true)
	require.NoError(t, err)
	tx.AssertExpectations(t)
	tx.AssertNotCalled(t, "Rollback")
	f.walletRepo.AssertNotCalled(t, "CountWalletsByUser", mock.Anything, mock.Anything)
}

// A failed insert must roll back the primary-flag clear with it.
func TestCreateWalletRollsBackClearWhenInsertFails(t *testing.T) {
	f := newWalletFixture(t)
	f.userExists()
	tx := f.insertTx()
	tx.On("ClearPrimaryWallet", mock.Anything, f.userID).Return(nil)
	tx.On("CreateWallet", mock.Anything, mock.Anything).Return(stderrors.New("insert failed"))
	tx.On("Rollback").Return(nil)

	_, err := f.svc.CreateWallet(context.Background(), f.userID, "Savings", true)
	require.Error(t, err)
	tx.AssertCalled(t, "Rollback")
	tx.AssertNotCalled(t, "Commit")
}

func TestCreateWalletUnknownUser(t *testing.T) {
	f := newWalletFixture(t)
	f.userRepo.On("GetUser", mock.Anything, f.userID).
		Return(nil, errors.NewNotFound("repository.GetUser", "user"))

	_, err := f.svc.CreateWallet(context.Background(), f.userID, "", false)
	require.Error(t, err)
	assert.Equal(t, errors.NotFound, errors.TypeOf(err))
}

func TestImportWalletDerivesKnownAddress(t *testing.T) {
	f := newWalletFixture(t)
	f.userExists()
	f.walletRepo.On("GetWalletByAddress", mock.Anything, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94").
		Return(nil, errors.NewNotFound("repository.GetWalletByAddress", "wallet"))
	f.walletRepo.On("CountWalletsByUser", mock.Anything, f.userID).Return(2, nil)
	tx := f.insertTx()
	tx.On("CreateWallet", mock.Anything, mock.MatchedBy(func(w *model.Wallet) bool {
		return w.Address == "0x9858EfFD232B4033E47d90003D41EC34EcaEda94" &&
			w.Balance.IsZero() &&
			w.WalletName == "Imported Wallet 3"
	})).Return(nil)
	tx.On("Commit").Return(nil)

	wallet, err := f.svc.ImportWallet(context.Background(), f.userID, signerMnemonic, "", false)
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", wallet.Address)
	assert.True(t, wallet.Balance.IsZero())
}

// A concurrent import can slip past the pre-insert existence check; the
// unique-index violation must still surface as a conflict, not an internal
// error.
func TestImportWalletLostRaceMapsToConflict(t *testing.T) {
	f := newWalletFixture(t)
	f.userExists()
	f.walletRepo.On("GetWalletByAddress", mock.Anything, mock.Anything).
		Return(nil, errors.NewNotFound("repository.GetWalletByAddress", "wallet"))
	f.walletRepo.On("CountWalletsByUser", mock.Anything, f.userID).Return(0, nil)
	tx := f.insertTx()
	tx.On("CreateWallet", mock.Anything, mock.Anything).
		Return(&pq.Error{Code: "23505", Constraint: "idx_wallets_address_lower"})
	tx.On("Rollback").Return(nil)

	_, err := f.svc.ImportWallet(context.Background(), f.userID, signerMnemonic, "", false)
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.TypeOf(err))
	tx.AssertCalled(t, "Rollback")
}

func TestImportWalletRejectsInvalidMnemonic(t *testing.T) {
	f := newWalletFixture(t)
	f.userExists()

	_, err := f.svc.ImportWallet(context.Background(), f.userID, "twelve bogus words that are not in the official bip39 wordlist", "", false)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidRequest, errors.TypeOf(err))
	f.txManager.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestImportWalletRejectsDuplicateAddress(t *testing.T) {
	f := newWalletFixture(t)
	f.userExists()
	f.walletRepo.On("GetWalletByAddress", mock.Anything, mock.Anything).
		Return(&model.Wallet{Address: "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"}, nil)

	_, err := f.svc.ImportWallet(context.Background(), f.userID, signerMnemonic, "", false)
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.TypeOf(err))
}

func TestGetBalanceFormatsETH(t *testing.T) {
	f := newWalletFixture(t)
	addr := "0x1111111111111111111111111111111111111111"
	f.walletRepo.On("GetWalletByAddress", mock.Anything, addr).
		Return(&model.Wallet{Address: addr, Balance: decimal.RequireFromString("2.5")}, nil)

	balance, err := f.svc.GetBalance(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, "2.500000 ETH", balance.BalanceETH)
	assert.True(t, balance.Balance.Equal(decimal.RequireFromString("2.5")))
}

func TestGetBalanceUnknownWallet(t *testing.T) {
	f := newWalletFixture(t)
	f.walletRepo.On("GetWalletByAddress", mock.Anything, mock.Anything).
		Return(nil, errors.NewNotFound("repository.GetWalletByAddress", "wallet"))

	_, err := f.svc.GetBalance(context.Background(), "0x1111111111111111111111111111111111111111")
	require.Error(t, err)
	assert.Equal(t, errors.NotFound, errors.TypeOf(err))
}

func TestListWalletsWithMnemonicsUsesSentinelOnBadCiphertext(t *testing.T) {
	f := newWalletFixture(t)
	good, err := f.keys.EncryptMnemonic(signerMnemonic)
	require.NoError(t, err)

	f.walletRepo.On("GetWalletsByUser", mock.Anything, f.userID).Return([]model.Wallet{
		{Address: "0x1111111111111111111111111111111111111111", MnemonicEncrypted: good},
		{Address: "0x2222222222222222222222222222222222222222", MnemonicEncrypted: "corrupted"},
	}, nil)

	wallets, err := f.svc.ListWallets(context.Background(), f.userID, true)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, signerMnemonic, wallets[0].Mnemonic)
	assert.Equal(t, "DECRYPTION_FAILED", wallets[1].Mnemonic)
}

func TestListWalletsWithoutMnemonics(t *testing.T) {
	f := newWalletFixture(t)
	f.walletRepo.On("GetWalletsByUser", mock.Anything, f.userID).Return([]model.Wallet{
		{Address: "0x1111111111111111111111111111111111111111", MnemonicEncrypted: "whatever"},
	}, nil)

	wallets, err := f.svc.ListWallets(context.Background(), f.userID, false)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Empty(t, wallets[0].Mnemonic)
}

func TestPrepareTransferWithETHAmount(t *testing.T) {
	f := newWalletFixture(t)
	amount := decimal.RequireFromString("1.5")

	prepared, err := f.svc.PrepareTransfer(context.Background(), model.PrepareTransferRequest{
		FromAddress: "0x1111111111111111111111111111111111111111",
		ToAddress:   "0x2222222222222222222222222222222222222222",
		Amount:      &amount,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"Transfer 1.5 ETH to 0x2222222222222222222222222222222222222222 from 0x1111111111111111111111111111111111111111",
		prepared.Message)
	f.prices.AssertNotCalled(t, "ConvertUSDToETH", mock.Anything, mock.Anything)
}

func TestPrepareTransferWithUSDAmountConverts(t *testing.T) {
	f := newWalletFixture(t)
	usd := decimal.RequireFromString("1000")
	f.prices.On("ConvertUSDToETH", mock.Anything, usd).Return(&model.Conversion{
		ETHAmount: decimal.RequireFromString("0.4"),
		USDAmount: usd,
		Rate:      decimal.RequireFromString("2500"),
		Source:    "skip_api",
	}, nil)

	prepared, err := f.svc.PrepareTransfer(context.Background(), model.PrepareTransferRequest{
		FromAddress: "0x1111111111111111111111111111111111111111",
		ToAddress:   "0x2222222222222222222222222222222222222222",
		AmountUSD:   &usd,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"Transfer 0.4 ETH ($1000.00 USD) to 0x2222222222222222222222222222222222222222 from 0x1111111111111111111111111111111111111111",
		prepared.Message)
	assert.True(t, prepared.Amount.Equal(decimal.RequireFromString("0.4")))
}

func TestPrepareTransferRequiresAnAmount(t *testing.T) {
	f := newWalletFixture(t)

	_, err := f.svc.PrepareTransfer(context.Background(), model.PrepareTransferRequest{
		FromAddress: "0x1111111111111111111111111111111111111111",
		ToAddress:   "0x2222222222222222222222222222222222222222",
	})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidRequest, errors.TypeOf(err))
}

func TestSignMessageMatchesDerivedAddress(t *testing.T) {
	f := newWalletFixture(t)

	signed, err := f.svc.SignMessage(context.Background(), model.SignMessageRequest{
		Message:       "hello",
		WalletAddress: "0x9858effd232b4033e47d90003d41ec34ecaeda94", // lowercase accepted
		Mnemonic:      signerMnemonic,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed.Signature, "0x"))

	verification, err := keyring.VerifySignature("hello", signed.Signature, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")
	require.NoError(t, err)
	assert.True(t, verification.IsValid)
}

func TestSignMessageRejectsMismatchedAddress(t *testing.T) {
	f := newWalletFixture(t)

	_, err := f.svc.SignMessage(context.Background(), model.SignMessageRequest{
		Message:       "hello",
		WalletAddress: "0x2222222222222222222222222222222222222222",
		Mnemonic:      signerMnemonic,
	})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidRequest, errors.TypeOf(err))
}
