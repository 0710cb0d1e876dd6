package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ErrNotFound is returned when a lookup finds no matching document.
var ErrNotFound = errors.New("document not found")

// ErrPermissionDenied is returned when the store rejects an operation
// under its access rules. It is deliberately distinct from ErrNotFound
// and ErrUnavailable so callers can distinguish authorization rejections
// from missing documents and transient failures.
var ErrPermissionDenied = errors.New("permission denied")

// ErrUnavailable is returned for network failures and timeouts talking
// to the store.
var ErrUnavailable = errors.New("store unavailable")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("duplicate document")

// MongoDB server error codes that indicate an authorization failure.
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
)

// MapError translates a driver error into the store error taxonomy.
// Errors that fit no category are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		if srvErr.HasErrorCode(codeUnauthorized) || srvErr.HasErrorCode(codeAuthenticationFailed) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}
	if mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
