package objectstore

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
)

type memObject struct {
	body []byte
	etag string
}

// MemoryStore is an in-process Store with S3-like conditional write
// semantics. It backs tests and the "memory" storage mode.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func etagOf(body []byte) string {
	sum := md5.Sum(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, common.ErrNotFound)
	}
	return &Object{Body: bytes.Clone(o.body), ETag: o.etag}, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, body []byte, opts PutOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrStorage, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, exists := m.objects[key]
	switch {
	case opts.IfNoneMatch == "*" && exists:
		return "", fmt.Errorf("put %s: %w", key, common.ErrVersionConflict)
	case opts.IfMatch != "" && (!exists || cur.etag != opts.IfMatch):
		return "", fmt.Errorf("put %s: %w", key, common.ErrVersionConflict)
	}

	o := memObject{body: bytes.Clone(body), etag: etagOf(body)}
	m.objects[key] = o
	return o.etag, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorage, err)
	}

	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
	}

	m.mu.RLock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys, nil
}
