package models

type StripeCard struct {
	Number   string         `json:"number"`
	ExpMonth string         `json:"exp_month"`
	ExpYear  string         `json:"exp_year"`
	CVC      string         `json:"cvc"`
	Name     string         `json:"name,omitempty"`
	Address  *StripeAddress `json:"address,omitempty"`
}

type StripeAddress struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

type StripeCardValidationRequest struct {
	BookingID string     `json:"booking_id"`
	Card      StripeCard `json:"card"`
}

type StripeCardValidationResponse struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message"`
	CardType string `json:"card_type,omitempty"`
	Last4    string `json:"last4,omitempty"`
}

type StripePaymentRequest struct {
	PaymentID   string            `json:"payment_id,omitempty"`
	BookingID   string            `json:"booking_id"`
	Amount      float64           `json:"amount,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Token       string            `json:"token,omitempty"`
	Card        *StripeCard       `json:"card,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type StripePaymentResponse struct {
	PaymentID     string        `json:"payment_id"`
	BookingID     string        `json:"booking_id"`
	Status        PaymentStatus `json:"status"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	TransactionID string        `json:"transaction_id"`
	PaymentMethod string        `json:"payment_method"`
	ReceiptURL    string        `json:"receipt_url,omitempty"`
	Created       int64         `json:"created"`
}
