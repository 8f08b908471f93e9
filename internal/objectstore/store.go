// Package objectstore abstracts the remote key/object storage the records
// live in. Implementations map their native failures onto the sentinels in
// internal/common:
//
//   - common.ErrNotFound for a missing key on Get,
//   - common.ErrVersionConflict for a failed If-Match / If-None-Match,
//   - common.ErrStorage for everything else.
//
// Stores never retry; retry policy belongs to the caller.
package objectstore

import "context"

// Object is a stored blob together with its entity tag.
type Object struct {
	Body []byte
	ETag string
}

// PutOptions controls conditional writes. IfMatch and IfNoneMatch are
// mutually exclusive; IfNoneMatch only supports "*" (create-only).
type PutOptions struct {
	ContentType string
	IfMatch     string
	IfNoneMatch string
}

// Store is the minimal object storage contract used by the repositories.
type Store interface {
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, body []byte, opts PutOptions) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

const (
	ContentTypeJSON   = "application/json"
	ContentTypeBinary = "application/octet-stream"
)
