// Package payment hands confirmed registrations over to a payment provider
// and interprets the provider's status callbacks.
package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/noah-isme/uniportal-api/internal/models"
)

// Provider names accepted by PAYMENT_PROVIDER.
const (
	ProviderMock     = "mock"
	ProviderMidtrans = "midtrans"
)

// ErrInvalidSignature is returned for callbacks that fail verification.
var ErrInvalidSignature = errors.New("payment: invalid notification signature")

// Item is one line of the order shown on the provider's page.
type Item struct {
	ID    string
	Name  string
	Price int64
	Qty   int32
}

// Intent is the order a provider is asked to collect.
type Intent struct {
	OrderID       string
	Amount        int64
	Currency      string
	CustomerName  string
	CustomerEmail string
	Items         []Item
}

// Checkout is what the client needs to complete payment.
type Checkout struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Provider starts payments and authenticates their callbacks.
type Provider interface {
	Name() string
	CreateIntent(ctx context.Context, intent Intent) (*Checkout, error)
	Verify(n models.PaymentNotification) error
}

// Signature computes the callback signature:
// hex(SHA512(order_id + status_code + gross_amount + server_key)).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func verifySignature(n models.PaymentNotification, serverKey string) error {
	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if got == "" || serverKey == "" {
		return ErrInvalidSignature
	}
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// Status maps a provider transaction status onto a registration status.
func Status(n models.PaymentNotification) models.RegistrationStatus {
	switch strings.ToLower(n.TransactionStatus) {
	case "capture":
		switch strings.ToLower(n.FraudStatus) {
		case "", "accept":
			return models.RegistrationPaid
		case "challenge":
			return models.RegistrationPending
		default:
			return models.RegistrationFailed
		}
	case "settlement":
		return models.RegistrationPaid
	case "pending", "authorize":
		return models.RegistrationPending
	case "deny", "cancel", "expire", "failure", "refund", "partial_refund":
		return models.RegistrationFailed
	default:
		return models.RegistrationPending
	}
}
