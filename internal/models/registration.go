package models

import "time"

// RegistrationStatus tracks a confirmed course registration through payment.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "PENDING"
	RegistrationPaid      RegistrationStatus = "PAID"
	RegistrationFailed    RegistrationStatus = "FAILED"
	RegistrationSubmitted RegistrationStatus = "SUBMITTED"
)

// Terminal reports whether no further payment callbacks can change the status.
func (s RegistrationStatus) Terminal() bool {
	return s == RegistrationFailed || s == RegistrationSubmitted
}

// Registration is a confirmed cart awaiting or past payment.
type Registration struct {
	ID           string             `db:"id" json:"id"`
	StudentID    string             `db:"student_id" json:"student_id"`
	StudentEmail string             `db:"student_email" json:"student_email"`
	StudentName  string             `db:"student_name" json:"student_name"`
	Courses      CourseList         `db:"courses" json:"courses"`
	TotalUnits   int                `db:"total_units" json:"total_units"`
	Amount       int64              `db:"amount" json:"amount"`
	Currency     string             `db:"currency" json:"currency"`
	Status       RegistrationStatus `db:"status" json:"status"`
	Provider     string             `db:"provider" json:"provider"`
	PaymentToken string             `db:"payment_token" json:"payment_token,omitempty"`
	PaymentURL   string             `db:"payment_url" json:"payment_url,omitempty"`
	UpstreamID   *string            `db:"upstream_id" json:"upstream_id,omitempty"`
	SlipPath     *string            `db:"slip_path" json:"-"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// PaymentNotification is the provider callback payload.
type PaymentNotification struct {
	OrderID           string `json:"order_id" validate:"required"`
	TransactionStatus string `json:"transaction_status" validate:"required"`
	FraudStatus       string `json:"fraud_status"`
	GrossAmount       string `json:"gross_amount"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
}
