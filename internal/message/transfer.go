// Package message renders transfer intents into the canonical human-signable
// string and parses that string back into structured fields.
package message

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	walleterrors "github.com/cypherd/walletBackend/internal/errors"
)

// Grammar (whitespace-sensitive):
//
//	Transfer <amount> ETH to <to> from <from>
//	Transfer <amount> ETH ($<usd> USD) to <to> from <from>
var (
	transferPattern = regexp.MustCompile(`^Transfer (\d+(?:\.\d+)?) ETH(?: \(\$(\d+(?:\.\d+)?) USD\))? to (0x[0-9a-fA-F]{40}) from (0x[0-9a-fA-F]{40})$`)
	addressPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

type Transfer struct {
	From      string
	To        string
	Amount    decimal.Decimal
	AmountUSD *decimal.Decimal
}

func IsValidAddress(address string) bool {
	return addressPattern.MatchString(address)
}

// Encode validates the fields and renders the signable message. The USD
// clause is included only when amountUSD is present, rendered with exactly
// two decimal places.
func Encode(from, to string, amount decimal.Decimal, amountUSD *decimal.Decimal) (string, error) {
	const op = "message.Encode"

	if !IsValidAddress(from) || !IsValidAddress(to) {
		return "", walleterrors.NewInvalidInput(op, "invalid wallet address")
	}
	if strings.EqualFold(from, to) {
		return "", walleterrors.NewInvalidInput(op, "cannot transfer to the same wallet")
	}
	if !amount.IsPositive() {
		return "", walleterrors.NewInvalidInput(op, "amount must be greater than 0")
	}

	if amountUSD != nil {
		return fmt.Sprintf("Transfer %s ETH ($%s USD) to %s from %s",
			amount.String(), amountUSD.StringFixed(2), to, from), nil
	}
	return fmt.Sprintf("Transfer %s ETH to %s from %s", amount.String(), to, from), nil
}

// Decode parses a transfer message. A message that does not match the
// grammar exactly yields nil; it is not an error.
func Decode(msg string) *Transfer {
	m := transferPattern.FindStringSubmatch(msg)
	if m == nil {
		return nil
	}

	amount, err := decimal.NewFromString(m[1])
	if err != nil {
		return nil
	}

	var amountUSD *decimal.Decimal
	if m[2] != "" {
		usd, err := decimal.NewFromString(m[2])
		if err != nil {
			return nil
		}
		amountUSD = &usd
	}

	return &Transfer{
		From:      m[4],
		To:        m[3],
		Amount:    amount,
		AmountUSD: amountUSD,
	}
}
