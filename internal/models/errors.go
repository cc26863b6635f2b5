package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAddress       = errors.New("invalid ethereum address")
	ErrNoData               = errors.New("no data")
	ErrProvider             = errors.New("provider error")
	ErrNotificationDelivery = errors.New("notification delivery failed")
)

// ProviderError is returned by WalletDataProvider implementations on network
// failure, provider-reported error status or malformed response.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrProvider) match any *ProviderError.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

func NewProviderError(op string, err error) error {
	return &ProviderError{Op: op, Err: err}
}
