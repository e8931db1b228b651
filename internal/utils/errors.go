package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken        = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials  = errors.New("INVALID_CREDENTIALS")
	ErrAccountInactive     = errors.New("ACCOUNT_INACTIVE")
	ErrProductNotFound     = errors.New("PRODUCT_NOT_FOUND")
	ErrVariantNotFound     = errors.New("VARIANT_NOT_FOUND")
	ErrSlugExists          = errors.New("SLUG_EXISTS")
	ErrTooManyOptions      = errors.New("TOO_MANY_OPTIONS")
	ErrTooManyValues       = errors.New("TOO_MANY_VALUES")
	ErrTooManyCombinations = errors.New("TOO_MANY_COMBINATIONS")
	ErrInvalidImage        = errors.New("INVALID_IMAGE")
	ErrImageTooLarge       = errors.New("IMAGE_TOO_LARGE")
	ErrInvalidPrice        = errors.New("INVALID_PRICE")
	ErrStorageUnavailable  = errors.New("STORAGE_UNAVAILABLE")
)
