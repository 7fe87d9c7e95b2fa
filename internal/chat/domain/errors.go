package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation malformed ids, missing fields, sender is not the caller
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedMediaType file mime type not in the allow-list
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrInvalidPayload empty or undecodable audio/file payload
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrPayloadTooLarge payload over the configured limit, also matches ErrInvalidPayload
	ErrPayloadTooLarge = fmt.Errorf("%w: payload too large", ErrInvalidPayload)
	// ErrStorageFailure message store or blob store rejected the write
	ErrStorageFailure = errors.New("storage failure")
	// ErrForbidden caller is not a participant of the pair
	ErrForbidden = errors.New("forbidden")
)
