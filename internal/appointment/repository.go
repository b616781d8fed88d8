package appointment

import (
	"context"
	"errors"
)

var (
	ErrRecordNotFound = errors.New("appointment record not found")
)

// Repository contains all DB interactions needed for appointment records.
type Repository interface {
	Create(ctx context.Context, rec Record) (*Record, error)

	// FindActiveByDNI returns the confirmed record for a DNI, if one exists.
	FindActiveByDNI(ctx context.Context, dni string) (*Record, error)

	// Cancel flips the active record for a DNI to cancelled.
	Cancel(ctx context.Context, dni string) (*Record, error)
}
