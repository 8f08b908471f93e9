// Package characters stores encrypted character records in an object
// store, one object per id under <namespace>/<id>.json. Records written by
// older deployments under <id>.bin at the bucket root are still readable and
// deletable; new writes never use that form.
package characters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/objectstore"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/timex"
)

const (
	recordExt = ".json"
	legacyExt = ".bin"

	// IndexName is the object name of the summary index inside the namespace.
	IndexName = "index.json"
)

type ObjectStoreRepository struct {
	store     objectstore.Store
	sealer    Sealer
	namespace string
	now       func() time.Time
}

func NewObjectStoreRepository(store objectstore.Store, sealer Sealer, namespace string) *ObjectStoreRepository {
	return &ObjectStoreRepository{
		store:     store,
		sealer:    sealer,
		namespace: strings.Trim(namespace, "/"),
		now:       time.Now,
	}
}

func (r *ObjectStoreRepository) CanonicalKey(id string) string {
	return r.namespace + "/" + id + recordExt
}

func (r *ObjectStoreRepository) LegacyKey(id string) string {
	return id + legacyExt
}

// IndexKey is the key of the summary index object.
func (r *ObjectStoreRepository) IndexKey() string {
	return r.namespace + "/" + IndexName
}

// IsRecordKey reports whether key may hold a record: a canonical or legacy
// extension, and not the index.
func (r *ObjectStoreRepository) IsRecordKey(key string) bool {
	if key == r.IndexKey() {
		return false
	}
	return strings.HasSuffix(key, recordExt) || strings.HasSuffix(key, legacyExt)
}

// ValidID reports whether id can name an object: non-empty, no path
// separators and not a dot segment.
func ValidID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "/\\") && id != "." && id != ".."
}

// Get loads the record for id. A missing object yields common.ErrNotFound;
// an object that exists but cannot be decrypted or parsed yields
// common.ErrDecryption.
func (r *ObjectStoreRepository) Get(ctx context.Context, id string) (*models.Character, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("get %q: %w", id, common.ErrNotFound)
	}
	return r.GetRaw(ctx, r.CanonicalKey(id))
}

// GetRaw loads and decrypts the object at key without any key mapping.
func (r *ObjectStoreRepository) GetRaw(ctx context.Context, key string) (*models.Character, error) {
	obj, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var c models.Character
	if err := r.sealer.Open(obj.Body, &c); err != nil {
		if !errors.Is(err, common.ErrDecryption) {
			err = fmt.Errorf("%w: %w", common.ErrDecryption, err)
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return &c, nil
}

// Put stamps updatedAt, encrypts the whole record and overwrites the
// canonical object. The caller's value is not modified; the persisted copy
// is returned.
func (r *ObjectStoreRepository) Put(ctx context.Context, c *models.Character) (*models.Character, error) {
	if c == nil || !ValidID(c.ID) {
		return nil, fmt.Errorf("put: %w: missing or malformed id", common.ErrInvalidRecord)
	}

	rec := *c
	rec.UpdatedAt = timex.FormatISO(r.now())

	blob, err := r.sealer.Seal(&rec)
	if err != nil {
		return nil, fmt.Errorf("seal %s: %w", rec.ID, err)
	}

	if _, err := r.store.Put(ctx, r.CanonicalKey(rec.ID), blob, objectstore.PutOptions{
		ContentType: objectstore.ContentTypeBinary,
	}); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes both the canonical and the legacy object. Deleting a record
// that does not exist is not an error.
func (r *ObjectStoreRepository) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("delete %q: %w", id, common.ErrInvalidRecord)
	}
	for _, key := range []string{r.CanonicalKey(id), r.LegacyKey(id)} {
		if err := r.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// DeleteLegacy removes only the legacy object for id, once its contents
// live under the canonical key.
func (r *ObjectStoreRepository) DeleteLegacy(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("delete %q: %w", id, common.ErrInvalidRecord)
	}
	return r.store.Delete(ctx, r.LegacyKey(id))
}

func (r *ObjectStoreRepository) ListRawKeys(ctx context.Context, prefix string) ([]string, error) {
	return r.store.List(ctx, prefix)
}
