package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/wreath-atelier/api/internal/platform/firestore"
)

// HealthRepository reports whether the Firestore backend is reachable.
type HealthRepository struct {
	provider *pfirestore.Provider
}

// NewHealthRepository constructs a Firestore-backed health repository.
func NewHealthRepository(provider *pfirestore.Provider) (*HealthRepository, error) {
	if provider == nil {
		return nil, errors.New("health repository requires firestore provider")
	}
	return &HealthRepository{provider: provider}, nil
}

// Ping verifies that a Firestore client can be obtained.
func (r *HealthRepository) Ping(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return errors.New("health repository not initialised")
	}
	_, err := r.provider.Client(ctx)
	return pfirestore.WrapError("health.ping", err)
}
