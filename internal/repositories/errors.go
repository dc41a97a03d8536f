package repositories

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicate is returned when a unique constraint (username, session
	// token) rejects a write.
	ErrDuplicate = errors.New("duplicate record")

	ErrNotInitialized = errors.New("repository not initialized")
)

// IsDuplicateError checks whether err was caused by a unique constraint
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// WrapError annotates a storage error with the failed operation
func WrapError(err error, operation string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}
