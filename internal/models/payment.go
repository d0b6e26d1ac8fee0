package models

import (
	"time"
)

type PaymentStatus string

const (
	StatusPending  PaymentStatus = "pending"
	StatusPaid     PaymentStatus = "paid"
	StatusFailed   PaymentStatus = "failed"
	StatusRefunded PaymentStatus = "refunded"
)

type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
	VerificationFlagged    VerificationStatus = "flagged"
)

// Payment is one attempt to pay against a booking. Amount is immutable
// once the record exists; only the status fields move, and only forward.
type Payment struct {
	PaymentID     string             `json:"payment_id" bun:"payment_id,pk"`
	BookingID     string             `json:"booking_id" bun:"booking_id"`
	Amount        float64            `json:"amount" bun:"amount"`
	Method        string             `json:"method" bun:"method"`
	Status        PaymentStatus      `json:"status" bun:"status"`
	Verification  VerificationStatus `json:"verification" bun:"verification"`
	URL           string             `json:"url" bun:"url"`
	TransactionID string             `json:"transaction_id,omitempty" bun:"transaction_id,nullzero"`
	CreatedDate   time.Time          `json:"created_date" bun:"created_date"`
	UpdatedDate   time.Time          `json:"updated_date,omitempty" bun:"updated_date,nullzero"`
}

// CanTransitionTo enforces forward-only settlement transitions.
func (p Payment) CanTransitionTo(next PaymentStatus) bool {
	switch p.Status {
	case StatusPending:
		return next == StatusPaid || next == StatusFailed || next == StatusRefunded
	case StatusPaid:
		return next == StatusRefunded
	}
	return false
}

// CanVerifyTo enforces forward-only verification transitions.
func (p Payment) CanVerifyTo(next VerificationStatus) bool {
	return p.Verification == VerificationUnverified &&
		(next == VerificationVerified || next == VerificationFlagged)
}

type PaymentRequest struct {
	PaymentID string  `json:"payment_id,omitempty"`
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount,omitempty"`
	Method    string  `json:"method,omitempty"`
	URL       string  `json:"url,omitempty"`
}

type PaymentResponse struct {
	PaymentID    string             `json:"payment_id"`
	BookingID    string             `json:"booking_id"`
	Status       PaymentStatus      `json:"status"`
	Verification VerificationStatus `json:"verification"`
	Amount       float64            `json:"amount"`
	CreatedDate  time.Time          `json:"created_date"`
	URL          string             `json:"url"`
}

type PaymentEvent struct {
	Type      string    `json:"type"`
	PaymentID string    `json:"payment_id"`
	BookingID string    `json:"booking_id"`
	Payment   *Payment  `json:"payment"`
	Timestamp time.Time `json:"timestamp"`
}

type RefundRequest struct {
	BookingID string `json:"booking_id,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Reason    string `json:"reason"`
}
