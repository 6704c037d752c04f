package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/keyring"
	"github.com/cypherd/walletBackend/internal/message"
	"github.com/cypherd/walletBackend/internal/model"
	"github.com/cypherd/walletBackend/internal/repository"
)

// TransferService turns a signed transfer message into an atomic balance
// mutation plus one immutable ledger row.
type TransferService interface {
	ExecuteTransfer(ctx context.Context, msg, signature, fromAddress string) (*model.TransferResult, error)
}

type transferService struct {
	txManager repository.TxManager
	logger    *zap.Logger
}

func NewTransferService(txManager repository.TxManager, logger *zap.Logger) TransferService {
	return &transferService{
		txManager: txManager,
		logger:    logger,
	}
}

// ExecuteTransfer runs the five-stage pipeline: verify signature, decode
// message, resolve sender, resolve (or create) receiver, mutate atomically.
// A failure at any stage leaves no effects behind.
//
// Resubmitting the same signed message executes a second transfer; nothing
// keys a ledger row by nonce or message hash.
func (s *transferService) ExecuteTransfer(ctx context.Context, msg, signature, fromAddress string) (*model.TransferResult, error) {
	const op = "service.ExecuteTransfer"

	// Stage 1: the recovered signer must match the claimed sender. A
	// recovery failure and an address mismatch are both terminal here.
	verification, err := keyring.VerifySignature(msg, signature, fromAddress)
	if err != nil {
		return nil, errors.NewInvalidSignature(op, "signature recovery failed")
	}
	if !verification.IsValid {
		return nil, errors.NewInvalidSignature(op, "signature does not match sender address")
	}

	// Stage 2. A message addressed back to the verified sender would make
	// stages 3 and 4 load the same row twice, and the credit write would
	// overwrite the debit. Reject it here, along with the self-addressed
	// form the codec itself refuses to produce.
	transfer := message.Decode(msg)
	if transfer == nil {
		return nil, errors.NewInvalidTransferMessage(op)
	}
	if strings.EqualFold(transfer.To, fromAddress) || strings.EqualFold(transfer.To, transfer.From) {
		return nil, errors.NewInvalidTransferMessage(op)
	}

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	// Stages 3 and 4 take row locks in ascending address order so two
	// opposing transfers cannot deadlock.
	var sender, receiver *model.Wallet
	if strings.ToLower(transfer.To) < strings.ToLower(fromAddress) {
		receiver, err = s.lockWallet(ctx, tx, transfer.To)
		if err != nil {
			return nil, err
		}
		sender, err = s.lockWallet(ctx, tx, fromAddress)
		if err != nil {
			return nil, err
		}
	} else {
		sender, err = s.lockWallet(ctx, tx, fromAddress)
		if err != nil {
			return nil, err
		}
		receiver, err = s.lockWallet(ctx, tx, transfer.To)
		if err != nil {
			return nil, err
		}
	}

	if sender == nil {
		return nil, errors.NewNotFound(op, "sender wallet")
	}
	if sender.Balance.LessThan(transfer.Amount) {
		return nil, errors.NewInsufficientBalance(op)
	}

	if receiver == nil {
		// External wallets originate only from incoming transfers; the
		// create rides in the same unit of work as the balance mutation.
		receiver = &model.Wallet{
			ID:                uuid.New(),
			UserID:            nil,
			Address:           transfer.To,
			MnemonicEncrypted: "",
			Balance:           decimal.Zero,
			WalletName:        "External Wallet",
		}
		if err := tx.CreateWallet(ctx, receiver); err != nil {
			return nil, errors.WrapInternal(op, err)
		}
	}

	// Stage 5
	senderBalance := sender.Balance.Sub(transfer.Amount)
	receiverBalance := receiver.Balance.Add(transfer.Amount)

	if err := tx.UpdateWalletBalance(ctx, sender.ID, senderBalance); err != nil {
		return nil, errors.WrapInternal(op, err)
	}
	if err := tx.UpdateWalletBalance(ctx, receiver.ID, receiverBalance); err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	transaction := &model.Transaction{
		ID:          uuid.New(),
		FromAddress: fromAddress,
		ToAddress:   transfer.To,
		Amount:      transfer.Amount,
		AmountUSD:   transfer.AmountUSD,
		Signature:   signature,
		MessageHash: keyring.HashMessage(msg),
		Status:      model.TransactionStatusCompleted,
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.CreateTransaction(ctx, transaction); err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.WrapInternal(op, err)
	}
	committed = true

	s.logger.Info("transfer executed",
		zap.String("from", fromAddress),
		zap.String("to", transfer.To),
		zap.String("amount", transfer.Amount.String()))

	return &model.TransferResult{
		Transaction:     transaction.ToResponse(),
		SenderBalance:   senderBalance,
		ReceiverBalance: receiverBalance,
	}, nil
}

// lockWallet returns (nil, nil) when the wallet does not exist; the caller
// decides whether absence is an error or a create.
func (s *transferService) lockWallet(ctx context.Context, tx repository.LedgerTx, address string) (*model.Wallet, error) {
	wallet, err := tx.GetWalletForUpdate(ctx, address)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.WrapInternal("service.lockWallet", err)
	}
	return wallet, nil
}
