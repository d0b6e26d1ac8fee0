package models_test

import (
	"testing"

	"resort-booking/internal/models"
)

func TestPaymentTransitionsForwardOnly(t *testing.T) {
	p := models.Payment{Status: models.StatusPending}

	if !p.CanTransitionTo(models.StatusPaid) {
		t.Error("pending -> paid should be allowed")
	}
	if !p.CanTransitionTo(models.StatusFailed) {
		t.Error("pending -> failed should be allowed")
	}

	p.Status = models.StatusPaid
	if !p.CanTransitionTo(models.StatusRefunded) {
		t.Error("paid -> refunded should be allowed")
	}
	if p.CanTransitionTo(models.StatusPending) {
		t.Error("paid -> pending must be rejected")
	}

	p.Status = models.StatusFailed
	if p.CanTransitionTo(models.StatusPaid) {
		t.Error("failed is terminal")
	}

	p.Status = models.StatusRefunded
	if p.CanTransitionTo(models.StatusPaid) {
		t.Error("refunded is terminal")
	}
}

func TestVerificationTransitions(t *testing.T) {
	p := models.Payment{Verification: models.VerificationUnverified}

	if !p.CanVerifyTo(models.VerificationVerified) {
		t.Error("unverified -> verified should be allowed")
	}
	if !p.CanVerifyTo(models.VerificationFlagged) {
		t.Error("unverified -> flagged should be allowed")
	}

	p.Verification = models.VerificationVerified
	if p.CanVerifyTo(models.VerificationFlagged) {
		t.Error("verification decisions are final")
	}

	p.Verification = models.VerificationFlagged
	if p.CanVerifyTo(models.VerificationVerified) {
		t.Error("flagged payments stay flagged")
	}
}
