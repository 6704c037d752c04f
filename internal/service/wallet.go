package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/keyring"
	"github.com/cypherd/walletBackend/internal/message"
	"github.com/cypherd/walletBackend/internal/model"
	"github.com/cypherd/walletBackend/internal/repository"
)

// WalletService manages per-user wallet records: creation, import, listing,
// balance lookup, transfer preparation and message signing. It never creates
// external wallets; those originate in the transfer engine only.
type WalletService interface {
	CreateWallet(ctx context.Context, userID uuid.UUID, walletName string, isPrimary bool) (*model.CreatedWallet, error)
	ImportWallet(ctx context.Context, userID uuid.UUID, mnemonic, walletName string, isPrimary bool) (*model.WalletResponse, error)
	GetBalance(ctx context.Context, address string) (*model.BalanceResponse, error)
	ListWallets(ctx context.Context, userID uuid.UUID, includeMnemonics bool) ([]model.WalletResponse, error)
	PrepareTransfer(ctx context.Context, req model.PrepareTransferRequest) (*model.PreparedTransfer, error)
	SignMessage(ctx context.Context, req model.SignMessageRequest) (*model.SignedMessageResponse, error)
}

type walletService struct {
	walletRepo repository.WalletRepository
	userRepo   repository.UserRepository
	txManager  repository.TxManager
	keys       *keyring.Keyring
	prices     PriceService
	logger     *zap.Logger
}

func NewWalletService(
	walletRepo repository.WalletRepository,
	userRepo repository.UserRepository,
	txManager repository.TxManager,
	keys *keyring.Keyring,
	prices PriceService,
	logger *zap.Logger,
) WalletService {
	return &walletService{
		walletRepo: walletRepo,
		userRepo:   userRepo,
		txManager:  txManager,
		keys:       keys,
		prices:     prices,
		logger:     logger,
	}
}

// insertWallet commits the primary-flag handover and the insert as one unit
// of work, so a failed insert cannot strand the user without a primary and
// a lost race on the address unique index maps to a conflict.
func (s *walletService) insertWallet(ctx context.Context, op string, wallet *model.Wallet) error {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return errors.WrapInternal(op, err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if wallet.IsPrimary {
		if err := tx.ClearPrimaryWallet(ctx, *wallet.UserID); err != nil {
			return errors.WrapInternal(op, err)
		}
	}
	if err := tx.CreateWallet(ctx, wallet); err != nil {
		if repository.IsUniqueViolation(err) {
			return errors.NewConflict(op, "wallet with this address already exists")
		}
		return errors.WrapInternal(op, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapInternal(op, err)
	}
	committed = true
	return nil
}

func (s *walletService) CreateWallet(ctx context.Context, userID uuid.UUID, walletName string, isPrimary bool) (*model.CreatedWallet, error) {
	const op = "service.CreateWallet"

	if _, err := s.userRepo.GetUser(ctx, userID); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound(op, "user")
		}
		return nil, errors.WrapInternal(op, err)
	}

	mnemonic, err := s.keys.GenerateMnemonic()
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}
	account, err := s.keys.DeriveAccount(mnemonic, 0)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}
	encrypted, err := s.keys.EncryptMnemonic(mnemonic)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	startingBalance := s.keys.RandomStartingBalance()

	if walletName == "" {
		count, err := s.walletRepo.CountWalletsByUser(ctx, userID)
		if err != nil {
			return nil, errors.WrapInternal(op, err)
		}
		walletName = fmt.Sprintf("Wallet %d", count+1)
	}

	wallet := &model.Wallet{
		ID:                uuid.New(),
		UserID:            &userID,
		Address:           account.Address,
		MnemonicEncrypted: encrypted,
		Balance:           startingBalance,
		WalletName:        walletName,
		IsPrimary:         isPrimary,
	}
	if err := s.insertWallet(ctx, op, wallet); err != nil {
		return nil, err
	}

	s.logger.Info("wallet created",
		zap.String("address", wallet.Address),
		zap.String("user_id", userID.String()))

	return &model.CreatedWallet{
		Wallet:          wallet.ToResponse(),
		Mnemonic:        mnemonic, // returned only at creation
		StartingBalance: startingBalance,
	}, nil
}

func (s *walletService) ImportWallet(ctx context.Context, userID uuid.UUID, mnemonic, walletName string, isPrimary bool) (*model.WalletResponse, error) {
	const op = "service.ImportWallet"

	if _, err := s.userRepo.GetUser(ctx, userID); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound(op, "user")
		}
		return nil, errors.WrapInternal(op, err)
	}

	if !s.keys.ValidateMnemonic(mnemonic) {
		return nil, errors.NewInvalidInput(op, "invalid mnemonic phrase")
	}
	account, err := s.keys.DeriveAccount(mnemonic, 0)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	if _, err := s.walletRepo.GetWalletByAddress(ctx, account.Address); err == nil {
		return nil, errors.NewConflict(op, "wallet with this address already exists")
	} else if !errors.IsNotFound(err) {
		return nil, errors.WrapInternal(op, err)
	}

	encrypted, err := s.keys.EncryptMnemonic(mnemonic)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	if walletName == "" {
		count, err := s.walletRepo.CountWalletsByUser(ctx, userID)
		if err != nil {
			return nil, errors.WrapInternal(op, err)
		}
		walletName = fmt.Sprintf("Imported Wallet %d", count+1)
	}

	wallet := &model.Wallet{
		ID:                uuid.New(),
		UserID:            &userID,
		Address:           account.Address,
		MnemonicEncrypted: encrypted,
		Balance:           decimal.Zero, // imported wallets start empty
		WalletName:        walletName,
		IsPrimary:         isPrimary,
	}
	if err := s.insertWallet(ctx, op, wallet); err != nil {
		return nil, err
	}

	resp := wallet.ToResponse()
	return &resp, nil
}

func (s *walletService) GetBalance(ctx context.Context, address string) (*model.BalanceResponse, error) {
	const op = "service.GetBalance"

	wallet, err := s.walletRepo.GetWalletByAddress(ctx, address)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound(op, "wallet")
		}
		return nil, errors.WrapInternal(op, err)
	}

	return &model.BalanceResponse{
		Address:    wallet.Address,
		Balance:    wallet.Balance,
		BalanceETH: fmt.Sprintf("%s ETH", wallet.Balance.StringFixed(6)),
	}, nil
}

func (s *walletService) ListWallets(ctx context.Context, userID uuid.UUID, includeMnemonics bool) ([]model.WalletResponse, error) {
	const op = "service.ListWallets"

	wallets, err := s.walletRepo.GetWalletsByUser(ctx, userID)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	responses := make([]model.WalletResponse, 0, len(wallets))
	for _, w := range wallets {
		resp := w.ToResponse()
		if includeMnemonics {
			mnemonic, err := s.keys.DecryptMnemonic(w.MnemonicEncrypted)
			if err != nil {
				// opportunistic decrypt: surface a sentinel, keep listing
				resp.Mnemonic = "DECRYPTION_FAILED"
				s.logger.Error("failed to decrypt mnemonic",
					zap.String("address", w.Address), zap.Error(err))
			} else {
				resp.Mnemonic = mnemonic
				s.logger.Warn("returning mnemonic in wallet listing",
					zap.String("address", w.Address))
			}
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *walletService) PrepareTransfer(ctx context.Context, req model.PrepareTransferRequest) (*model.PreparedTransfer, error) {
	const op = "service.PrepareTransfer"

	if req.Amount == nil && req.AmountUSD == nil {
		return nil, errors.NewInvalidInput(op, "either amount (ETH) or amount_usd is required")
	}

	var amount decimal.Decimal
	if req.AmountUSD != nil {
		conversion, err := s.prices.ConvertUSDToETH(ctx, *req.AmountUSD)
		if err != nil {
			return nil, err
		}
		amount = conversion.ETHAmount
	} else {
		amount = *req.Amount
	}

	msg, err := message.Encode(req.FromAddress, req.ToAddress, amount, req.AmountUSD)
	if err != nil {
		return nil, err
	}

	return &model.PreparedTransfer{
		Message:     msg,
		FromAddress: req.FromAddress,
		ToAddress:   req.ToAddress,
		Amount:      amount,
		AmountUSD:   req.AmountUSD,
	}, nil
}

func (s *walletService) SignMessage(ctx context.Context, req model.SignMessageRequest) (*model.SignedMessageResponse, error) {
	const op = "service.SignMessage"

	if !s.keys.ValidateMnemonic(req.Mnemonic) {
		return nil, errors.NewInvalidInput(op, "invalid mnemonic phrase")
	}
	account, err := s.keys.DeriveAccount(req.Mnemonic, 0)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}
	if !strings.EqualFold(account.Address, req.WalletAddress) {
		return nil, errors.NewInvalidInput(op, "wallet address does not match mnemonic")
	}

	signed, err := keyring.SignMessage(account.PrivateKey, req.Message)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	return &model.SignedMessageResponse{
		Signature:     signed.Signature,
		MessageHash:   signed.MessageHash,
		WalletAddress: account.Address,
	}, nil
}
