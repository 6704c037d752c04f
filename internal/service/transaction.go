package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/model"
	"github.com/cypherd/walletBackend/internal/repository"
)

const (
	historyDefaultLimit = 50
	historyMaxLimit     = 100
	recentDefaultLimit  = 20
	recentMaxLimit      = 50
)

// TransactionService is the read side of the ledger.
type TransactionService interface {
	History(ctx context.Context, address, status string, limit, offset int) (*model.TransactionHistory, error)
	Stats(ctx context.Context, address string) (*model.TransactionStats, error)
	Get(ctx context.Context, id uuid.UUID) (*model.TransactionResponse, error)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]model.TransactionResponse, error)
}

type transactionService struct {
	txRepo     repository.TransactionRepository
	walletRepo repository.WalletRepository
	logger     *zap.Logger
}

func NewTransactionService(txRepo repository.TransactionRepository, walletRepo repository.WalletRepository, logger *zap.Logger) TransactionService {
	return &transactionService{
		txRepo:     txRepo,
		walletRepo: walletRepo,
		logger:     logger,
	}
}

func (s *transactionService) History(ctx context.Context, address, status string, limit, offset int) (*model.TransactionHistory, error) {
	const op = "service.TransactionHistory"

	if limit <= 0 {
		limit = historyDefaultLimit
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	transactions, err := s.txRepo.GetTransactionsByAddress(ctx, address, status, limit, offset)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}
	total, err := s.txRepo.CountTransactionsByAddress(ctx, address, status)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	responses := make([]model.TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		responses = append(responses, t.ToResponse())
	}

	return &model.TransactionHistory{
		Transactions: responses,
		TotalCount:   total,
		Limit:        limit,
		Offset:       offset,
		HasMore:      offset+len(responses) < total,
	}, nil
}

func (s *transactionService) Stats(ctx context.Context, address string) (*model.TransactionStats, error) {
	const op = "service.TransactionStats"

	transactions, err := s.txRepo.GetAllTransactionsByAddress(ctx, address)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	stats := &model.TransactionStats{
		TotalTransactions: len(transactions),
		TotalSent:         decimal.Zero,
		TotalReceived:     decimal.Zero,
	}
	for i := range transactions {
		t := &transactions[i]
		if strings.EqualFold(t.FromAddress, address) {
			stats.TotalSent = stats.TotalSent.Add(t.Amount)
		}
		if strings.EqualFold(t.ToAddress, address) {
			stats.TotalReceived = stats.TotalReceived.Add(t.Amount)
		}
		if stats.FirstTransaction == nil {
			first := t.CreatedAt
			stats.FirstTransaction = &first
		}
		last := t.CreatedAt
		stats.LastTransaction = &last
	}
	stats.NetBalanceChange = stats.TotalReceived.Sub(stats.TotalSent)
	return stats, nil
}

func (s *transactionService) Get(ctx context.Context, id uuid.UUID) (*model.TransactionResponse, error) {
	const op = "service.GetTransaction"

	transaction, err := s.txRepo.GetTransaction(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound(op, "transaction")
		}
		return nil, errors.WrapInternal(op, err)
	}
	resp := transaction.ToResponse()
	return &resp, nil
}

func (s *transactionService) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]model.TransactionResponse, error) {
	const op = "service.RecentTransactions"

	if limit <= 0 {
		limit = recentDefaultLimit
	}
	if limit > recentMaxLimit {
		limit = recentMaxLimit
	}

	wallets, err := s.walletRepo.GetWalletsByUser(ctx, userID)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}
	if len(wallets) == 0 {
		return []model.TransactionResponse{}, nil
	}

	addresses := make([]string, 0, len(wallets))
	for _, w := range wallets {
		addresses = append(addresses, w.Address)
	}

	transactions, err := s.txRepo.GetRecentTransactions(ctx, addresses, limit)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	responses := make([]model.TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		responses = append(responses, t.ToResponse())
	}
	return responses, nil
}
