package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"resort-booking/internal/auth"
	"resort-booking/internal/logger"
	"resort-booking/internal/models"
)

// BookingClient settles bookings through the booking service API. It is
// the payment gateway's path back into the hold lifecycle when the two
// services run as separate processes.
type BookingClient struct {
	BaseURL    string
	HTTPClient *http.Client
	TokenCache *auth.RedisTokenCache
	M2M        auth.M2MConfig
	Logger     *logger.Logger
}

func NewBookingClient(baseURL string, tokenCache *auth.RedisTokenCache, m2m auth.M2MConfig, log *logger.Logger) *BookingClient {
	return &BookingClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		TokenCache: tokenCache,
		M2M:        m2m,
		Logger:     log,
	}
}

// SettlePayments triggers a settlement pass on the booking service.
func (c *BookingClient) SettlePayments(bookingID string) (*models.Booking, error) {
	ctx := context.Background()

	url := fmt.Sprintf("%s/api/v1/bookings/%s/settle", c.BaseURL, bookingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}

	if c.TokenCache != nil {
		token, terr := c.TokenCache.FetchOrRefresh(ctx, c.M2M)
		if terr != nil {
			return nil, fmt.Errorf("failed to obtain service token: %w", terr)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("booking service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("settle request failed with status %s", resp.Status)
	}

	var booking models.Booking
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		return nil, fmt.Errorf("failed to decode settle response: %w", err)
	}

	if c.Logger != nil {
		c.Logger.LogBooking("SETTLE", bookingID, fmt.Sprintf("booking now %s / %s", booking.Status, booking.PaymentStatus))
	}
	return &booking, nil
}
