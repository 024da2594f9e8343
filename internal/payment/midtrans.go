package payment

import (
	"context"
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/noah-isme/uniportal-api/internal/models"
)

type snapClient interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// MidtransProvider collects payments through Midtrans Snap.
type MidtransProvider struct {
	client    snapClient
	serverKey string
}

// NewMidtransProvider builds a Snap client for the sandbox or production environment.
func NewMidtransProvider(serverKey string, production bool) (*MidtransProvider, error) {
	if serverKey == "" {
		return nil, fmt.Errorf("midtrans server key required")
	}
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var client snap.Client
	client.New(serverKey, env)
	return &MidtransProvider{client: &client, serverKey: serverKey}, nil
}

// Name implements Provider.
func (p *MidtransProvider) Name() string { return ProviderMidtrans }

// CreateIntent requests a Snap token for the order. The Snap API takes no
// context, so cancellation is only honoured before the call is made.
func (p *MidtransProvider) CreateIntent(ctx context.Context, intent Intent) (*Checkout, error) {
	if intent.OrderID == "" || intent.Amount <= 0 {
		return nil, fmt.Errorf("midtrans: order id and positive amount required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  intent.OrderID,
			GrossAmt: intent.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: intent.CustomerName,
			Email: intent.CustomerEmail,
		},
		CreditCard: &snap.CreditCardDetails{Secure: true},
	}
	if len(intent.Items) > 0 {
		items := make([]midtrans.ItemDetails, 0, len(intent.Items))
		for _, it := range intent.Items {
			items = append(items, midtrans.ItemDetails{
				ID:       it.ID,
				Name:     truncate(it.Name, 50),
				Price:    it.Price,
				Qty:      it.Qty,
				Category: "course",
			})
		}
		req.Items = &items
	}

	resp, mErr := p.client.CreateTransaction(req)
	if mErr != nil {
		return nil, fmt.Errorf("midtrans: create transaction: %w", mErr)
	}
	return &Checkout{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// Verify implements Provider.
func (p *MidtransProvider) Verify(n models.PaymentNotification) error {
	return verifySignature(n, p.serverKey)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
