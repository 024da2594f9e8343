package models

import "time"

// Payment is one transaction listed in the super-admin payments table.
type Payment struct {
	ID             string    `json:"id"`
	TransactionID  string    `json:"transaction_id"`
	StudentName    string    `json:"student_name"`
	UniversityName string    `json:"university_name"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"`
	Method         string    `json:"method,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// PaymentList is the backend payments payload.
type PaymentList struct {
	TotalRevenue float64   `json:"totalRevenue"`
	Count        int       `json:"count"`
	Payments     []Payment `json:"payments"`
}
