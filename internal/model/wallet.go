package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID                uuid.UUID       `db:"id"`
	UserID            *uuid.UUID      `db:"user_id"` // nil for external, ledger-only wallets
	Address           string          `db:"address"`
	MnemonicEncrypted string          `db:"mnemonic_encrypted"`
	Balance           decimal.Decimal `db:"balance"`
	WalletName        string          `db:"wallet_name"`
	IsPrimary         bool            `db:"is_primary"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

type WalletResponse struct {
	ID         uuid.UUID       `json:"id"`
	UserID     *uuid.UUID      `json:"user_id"`
	Address    string          `json:"address"`
	Balance    decimal.Decimal `json:"balance"`
	WalletName string          `json:"wallet_name"`
	IsPrimary  bool            `json:"is_primary"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	// Populated only on debug listings that request mnemonics.
	Mnemonic string `json:"mnemonic,omitempty"`
}

func (w *Wallet) ToResponse() WalletResponse {
	return WalletResponse{
		ID:         w.ID,
		UserID:     w.UserID,
		Address:    w.Address,
		Balance:    w.Balance,
		WalletName: w.WalletName,
		IsPrimary:  w.IsPrimary,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}

type CreateWalletRequest struct {
	WalletName string `json:"wallet_name"`
	IsPrimary  bool   `json:"is_primary"`
}

type ImportWalletRequest struct {
	Mnemonic   string `json:"mnemonic" binding:"required"`
	WalletName string `json:"wallet_name"`
	IsPrimary  bool   `json:"is_primary"`
}

// CreatedWallet carries the plaintext mnemonic; it is returned exactly once,
// at creation time.
type CreatedWallet struct {
	Wallet          WalletResponse  `json:"wallet"`
	Mnemonic        string          `json:"mnemonic"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
}

type BalanceResponse struct {
	Address    string          `json:"address"`
	Balance    decimal.Decimal `json:"balance"`
	BalanceETH string          `json:"balance_eth"`
}

type PrepareTransferRequest struct {
	FromAddress string           `json:"from_address" binding:"required"`
	ToAddress   string           `json:"to_address" binding:"required"`
	Amount      *decimal.Decimal `json:"amount"`
	AmountUSD   *decimal.Decimal `json:"amount_usd"`
}

type PreparedTransfer struct {
	Message     string           `json:"message"`
	FromAddress string           `json:"from_address"`
	ToAddress   string           `json:"to_address"`
	Amount      decimal.Decimal  `json:"amount"`
	AmountUSD   *decimal.Decimal `json:"amount_usd"`
}

type ExecuteTransferRequest struct {
	Message     string `json:"message" binding:"required"`
	Signature   string `json:"signature" binding:"required"`
	FromAddress string `json:"from_address" binding:"required"`
}

type SignMessageRequest struct {
	Message       string `json:"message" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
	Mnemonic      string `json:"mnemonic" binding:"required"`
}

type SignedMessageResponse struct {
	Signature     string `json:"signature"`
	MessageHash   string `json:"message_hash"`
	WalletAddress string `json:"wallet_address"`
}
