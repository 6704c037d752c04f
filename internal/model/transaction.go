package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionStatusCompleted = "completed"
)

// Transaction is an immutable ledger row; it is never updated after insert.
type Transaction struct {
	ID              uuid.UUID        `db:"id"`
	FromAddress     string           `db:"from_address"`
	ToAddress       string           `db:"to_address"`
	Amount          decimal.Decimal  `db:"amount"`
	AmountUSD       *decimal.Decimal `db:"amount_usd"`
	Signature       string           `db:"signature"`
	MessageHash     string           `db:"message_hash"`
	Status          string           `db:"status"`
	TransactionHash *string          `db:"transaction_hash"`
	GasFee          *decimal.Decimal `db:"gas_fee"`
	CreatedAt       time.Time        `db:"created_at"`
}

type TransactionResponse struct {
	ID              uuid.UUID        `json:"id"`
	FromAddress     string           `json:"from_address"`
	ToAddress       string           `json:"to_address"`
	Amount          decimal.Decimal  `json:"amount"`
	AmountUSD       *decimal.Decimal `json:"amount_usd"`
	Signature       string           `json:"signature"`
	MessageHash     string           `json:"message_hash"`
	Status          string           `json:"status"`
	TransactionHash *string          `json:"transaction_hash"`
	GasFee          *decimal.Decimal `json:"gas_fee"`
	CreatedAt       time.Time        `json:"created_at"`
}

func (t *Transaction) ToResponse() TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		FromAddress:     t.FromAddress,
		ToAddress:       t.ToAddress,
		Amount:          t.Amount,
		AmountUSD:       t.AmountUSD,
		Signature:       t.Signature,
		MessageHash:     t.MessageHash,
		Status:          t.Status,
		TransactionHash: t.TransactionHash,
		GasFee:          t.GasFee,
		CreatedAt:       t.CreatedAt,
	}
}

type TransferResult struct {
	Transaction     TransactionResponse `json:"transaction"`
	SenderBalance   decimal.Decimal     `json:"sender_balance"`
	ReceiverBalance decimal.Decimal     `json:"receiver_balance"`
}

type TransactionHistory struct {
	Transactions []TransactionResponse `json:"transactions"`
	TotalCount   int                   `json:"total_count"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	HasMore      bool                  `json:"has_more"`
}

type TransactionStats struct {
	TotalTransactions int             `json:"total_transactions"`
	TotalSent         decimal.Decimal `json:"total_sent"`
	TotalReceived     decimal.Decimal `json:"total_received"`
	NetBalanceChange  decimal.Decimal `json:"net_balance_change"`
	FirstTransaction  *time.Time      `json:"first_transaction"`
	LastTransaction   *time.Time      `json:"last_transaction"`
}
