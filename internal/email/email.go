package email

import (
	"fmt"
	"net/smtp"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cypherd/walletBackend/internal/config"
)

// Notifier sends plain-text mail over SMTP. Delivery is best effort: every
// failure is logged and swallowed so a mail outage never fails a transfer.
// When no SMTP username is configured sends are skipped entirely.
type Notifier struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

func NewNotifier(cfg config.SMTPConfig, logger *zap.Logger) *Notifier {
	return &Notifier{cfg: cfg, logger: logger}
}

func (n *Notifier) TransactionCompleted(to, fromAddress, toAddress string, amount decimal.Decimal, newBalance decimal.Decimal) {
	subject := "Transaction Completed"
	body := fmt.Sprintf(
		"Your transfer has been completed.\n\n"+
			"From: %s\nTo: %s\nAmount: %s ETH\nNew Balance: %s ETH\n",
		fromAddress, toAddress, amount.String(), newBalance.StringFixed(6))
	n.send(to, subject, body)
}

func (n *Notifier) WalletCreated(to, address string, startingBalance decimal.Decimal) {
	subject := "Welcome to CypherD Wallet"
	body := fmt.Sprintf(
		"Your new wallet is ready.\n\n"+
			"Address: %s\nStarting Balance: %s ETH\n\n"+
			"Keep your recovery phrase somewhere safe. It will not be shown again.\n",
		address, startingBalance.StringFixed(6))
	n.send(to, subject, body)
}

func (n *Notifier) send(to, subject, body string) {
	if n.cfg.Username == "" {
		n.logger.Debug("smtp not configured, skipping notification",
			zap.String("subject", subject))
		return
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.cfg.From, to, subject, body))

	addr := n.cfg.Host + ":" + n.cfg.Port
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{to}, msg); err != nil {
		n.logger.Error("failed to send notification email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	n.logger.Info("notification email sent",
		zap.String("to", to), zap.String("subject", subject))
}
