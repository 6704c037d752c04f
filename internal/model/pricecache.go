package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const PairETHUSD = "ETH_USD"

// PriceCache holds the most recent quote for a pair; stale rows for a pair
// are superseded whenever a fresh price is cached.
type PriceCache struct {
	ID        uuid.UUID       `db:"id"`
	Pair      string          `db:"pair"`
	Price     decimal.Decimal `db:"price"`
	Timestamp time.Time       `db:"timestamp"`
}

type PriceQuote struct {
	Price  decimal.Decimal `json:"price"`
	Source string          `json:"source"`
}

type Conversion struct {
	ETHAmount decimal.Decimal `json:"eth_amount"`
	USDAmount decimal.Decimal `json:"usd_amount"`
	Rate      decimal.Decimal `json:"rate"`
	Source    string          `json:"source"`
}

type ConvertRequest struct {
	USDAmount decimal.Decimal `json:"usd_amount" binding:"required"`
}
