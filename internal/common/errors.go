// Package common defines the sentinel errors shared by the storage, index,
// access and transport layers of SheetKeeper. Callers should use errors.Is
// to match these values; lower layers wrap them with %w.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNotFound        = errors.New("not found")
	ErrStorage         = errors.New("storage error")
	ErrVersionConflict = errors.New("version conflict")

	// Record-level errors.
	ErrDecryption     = errors.New("decryption failed")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrCopyProhibited = errors.New("copy prohibited")

	// Index errors. ErrIndexWriteFailed means the record write succeeded
	// but the index update did not.
	ErrIndexWriteFailed = errors.New("index write failed")
	ErrIndexCorrupt     = errors.New("index corrupt")

	// Access gate errors.
	ErrDenied          = errors.New("access denied")
	ErrAuthCheckFailed = errors.New("auth check failed")

	// Capability token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
