package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers unknown usernames, wrong passwords and
	// role mismatches alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreFault marks failures of the credential or session store
	ErrStoreFault = errors.New("store fault")

	ErrUsernameTaken = errors.New("username already taken")

	ErrTokenCollision = errors.New("could not allocate a unique session token")
)

// StoreFaultError wraps a storage failure with the operation that hit it.
// errors.Is(err, ErrStoreFault) holds for every StoreFaultError.
type StoreFaultError struct {
	Op  string
	Err error
}

func NewStoreFaultError(op string, err error) *StoreFaultError {
	return &StoreFaultError{Op: op, Err: err}
}

func (e *StoreFaultError) Error() string {
	return fmt.Sprintf("store fault during %s: %v", e.Op, e.Err)
}

func (e *StoreFaultError) Unwrap() error {
	return e.Err
}

func (e *StoreFaultError) Is(target error) bool {
	return target == ErrStoreFault
}

// IsStoreFault reports whether err was caused by a store failure
func IsStoreFault(err error) bool {
	return errors.Is(err, ErrStoreFault)
}

// asStoreFault passes nil and existing store faults through unchanged
func asStoreFault(op string, err error) error {
	if err == nil {
		return nil
	}
	var sf *StoreFaultError
	if errors.As(err, &sf) {
		return err
	}
	return NewStoreFaultError(op, err)
}
