package payment

import (
	"context"
	"fmt"
	"net/url"

	"github.com/noah-isme/uniportal-api/internal/models"
)

// MockProvider accepts every order without contacting anyone. Callbacks are
// signed the same way as Midtrans, with key as the server key.
type MockProvider struct {
	key     string
	baseURL string
}

// NewMockProvider builds a mock provider whose checkout links point at baseURL.
func NewMockProvider(key, baseURL string) *MockProvider {
	if baseURL == "" {
		baseURL = "https://pay.example.test/checkout"
	}
	return &MockProvider{key: key, baseURL: baseURL}
}

// Name implements Provider.
func (p *MockProvider) Name() string { return ProviderMock }

// CreateIntent implements Provider.
func (p *MockProvider) CreateIntent(ctx context.Context, intent Intent) (*Checkout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if intent.OrderID == "" || intent.Amount <= 0 {
		return nil, fmt.Errorf("mock: order id and positive amount required")
	}
	token := "mock-" + intent.OrderID
	return &Checkout{
		Token:       token,
		RedirectURL: p.baseURL + "?token=" + url.QueryEscape(token),
	}, nil
}

// Verify implements Provider.
func (p *MockProvider) Verify(n models.PaymentNotification) error {
	return verifySignature(n, p.key)
}
