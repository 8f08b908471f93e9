// Package index persists the plaintext summary index used for listings.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/objectstore"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
)

type ObjectStoreRepository struct {
	store objectstore.Store
	key   string
}

func NewObjectStoreRepository(store objectstore.Store, key string) *ObjectStoreRepository {
	return &ObjectStoreRepository{store: store, key: key}
}

func (r *ObjectStoreRepository) Key() string {
	return r.key
}

// Load reads the index. A missing object is an empty, non-existent
// snapshot. An object that does not parse yields common.ErrIndexCorrupt
// together with the snapshot's ETag so the caller can still replace it.
func (r *ObjectStoreRepository) Load(ctx context.Context) (*Snapshot, error) {
	obj, err := r.store.Get(ctx, r.key)
	if errors.Is(err, common.ErrNotFound) {
		return &Snapshot{Entries: []models.Summary{}}, nil
	}
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{ETag: obj.ETag, Exists: true}
	var entries []models.Summary
	if err := json.Unmarshal(obj.Body, &entries); err != nil {
		snap.Entries = []models.Summary{}
		return snap, fmt.Errorf("%w: %s: %w", common.ErrIndexCorrupt, r.key, err)
	}
	if entries == nil {
		entries = []models.Summary{}
	}
	snap.Entries = entries
	return snap, nil
}

func (r *ObjectStoreRepository) Save(ctx context.Context, entries []models.Summary, prev *Snapshot) error {
	opts := objectstore.PutOptions{ContentType: objectstore.ContentTypeJSON}
	if prev != nil && prev.Exists {
		opts.IfMatch = prev.ETag
	} else {
		opts.IfNoneMatch = "*"
	}
	return r.put(ctx, entries, opts)
}

func (r *ObjectStoreRepository) Overwrite(ctx context.Context, entries []models.Summary) error {
	return r.put(ctx, entries, objectstore.PutOptions{ContentType: objectstore.ContentTypeJSON})
}

func (r *ObjectStoreRepository) put(ctx context.Context, entries []models.Summary, opts objectstore.PutOptions) error {
	body, err := Encode(entries)
	if err != nil {
		return err
	}
	_, err = r.store.Put(ctx, r.key, body, opts)
	return err
}

// Encode renders entries the way they are stored: an indented JSON array,
// never null.
func Encode(entries []models.Summary) ([]byte, error) {
	if entries == nil {
		entries = []models.Summary{}
	}
	body, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return body, nil
}
