package domain

import "errors"

var (
	ErrInvalidURL        = errors.New("invalid url")
	ErrInvalidCodeFormat = errors.New("short code must be 4-10 alphanumeric characters")
	ErrInvalidExpiry     = errors.New("expiry must be a positive number of days")

	ErrCodeAlreadyExists   = errors.New("short code already exists")
	ErrAllocationExhausted = errors.New("could not allocate a unique short code")

	ErrNotFound = errors.New("short url not found")
	ErrExpired  = errors.New("short url has expired")

	// ErrDuplicateKey is returned by stores when an insert hits the unique short code constraint.
	ErrDuplicateKey = errors.New("duplicate short code")

	ErrStoreFailure = errors.New("store failure")
)

// StoreError wraps an I/O failure from the record store. It matches ErrStoreFailure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrInvalidCodeFormat) ||
		errors.Is(err, ErrInvalidExpiry)
}
