// internal/notify/notify.go
// Package notify delivers completion notifications after a verification
// run. Delivery is best-effort; the pipeline never fails because of it.
package notify

import (
	"context"

	"kyc-verifier/internal/models"
)

// Notifier announces a completed verification to the subject's contacts.
type Notifier interface {
	NotifyCompletion(ctx context.Context, record *models.VerificationRecord, subject models.Subject) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) NotifyCompletion(context.Context, *models.VerificationRecord, models.Subject) error {
	return nil
}
