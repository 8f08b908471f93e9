// Package admin implements the maintenance operations behind sheetctl:
// rebuilding and listing the summary index, and re-encrypting every record
// under a new passphrase.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/logging"
	"github.com/dmitrijs2005/sheetkeeper/internal/objectstore"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/characters"
)

// RotateResult reports what a key rotation touched.
type RotateResult struct {
	Rotated  int
	Current  int
	Skipped  []string
	Migrated int
}

type found struct {
	rec       *models.Character
	key       string
	canonical bool
	current   bool
}

// RotateKey re-encrypts every record readable under from so that it becomes
// readable under to. Records are written to their canonical key with their
// updatedAt untouched and legacy objects are removed. Objects already
// readable under to are left alone, so an interrupted rotation can be rerun.
// Objects readable under neither are reported in Skipped.
//
// The index is not touched; callers rebuild it with the new key afterwards.
func RotateKey(ctx context.Context, store objectstore.Store, from, to characters.Sealer, namespace string, log logging.Logger) (*RotateResult, error) {
	oldRepo := characters.NewObjectStoreRepository(store, from, namespace)
	newRepo := characters.NewObjectStoreRepository(store, to, namespace)

	keys, err := store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("rotate: list: %w", err)
	}

	res := &RotateResult{}
	byID := make(map[string]found)
	legacy := make(map[string]bool)
	order := make([]string, 0, len(keys))

	for _, key := range keys {
		if !oldRepo.IsRecordKey(key) {
			continue
		}

		f, err := readEither(ctx, oldRepo, newRepo, key)
		if err != nil {
			if !errors.Is(err, common.ErrDecryption) {
				return nil, fmt.Errorf("rotate: %w", err)
			}
			log.Warn(ctx, "skipping object unreadable under either key", "key", key)
			res.Skipped = append(res.Skipped, key)
			continue
		}
		if !characters.ValidID(f.rec.ID) {
			log.Warn(ctx, "skipping object with missing or malformed id", "key", key, "id", f.rec.ID)
			res.Skipped = append(res.Skipped, key)
			continue
		}
		f.canonical = key == oldRepo.CanonicalKey(f.rec.ID)
		if key == oldRepo.LegacyKey(f.rec.ID) {
			legacy[f.rec.ID] = true
		}

		prev, seen := byID[f.rec.ID]
		if !seen {
			order = append(order, f.rec.ID)
		} else if prev.canonical && !f.canonical {
			continue
		}
		byID[f.rec.ID] = f
	}

	for _, id := range order {
		f := byID[id]

		if !f.current || !f.canonical {
			blob, err := to.Seal(f.rec)
			if err != nil {
				return res, fmt.Errorf("rotate: seal %s: %w", id, err)
			}
			if _, err := store.Put(ctx, newRepo.CanonicalKey(id), blob, objectstore.PutOptions{
				ContentType: objectstore.ContentTypeBinary,
			}); err != nil {
				return res, fmt.Errorf("rotate: write %s: %w", id, err)
			}
		}

		// a legacy copy is either what was just rewritten or shadowed by the
		// canonical record; either way it is no longer needed
		if legacy[id] {
			if err := newRepo.DeleteLegacy(ctx, id); err != nil {
				return res, fmt.Errorf("rotate: remove legacy %s: %w", newRepo.LegacyKey(id), err)
			}
			res.Migrated++
		}

		if f.current {
			res.Current++
		} else {
			res.Rotated++
		}
	}

	log.Info(ctx, "key rotated", "rotated", res.Rotated, "current", res.Current, "skipped", len(res.Skipped))
	return res, nil
}

func readEither(ctx context.Context, oldRepo, newRepo characters.Repository, key string) (found, error) {
	rec, err := oldRepo.GetRaw(ctx, key)
	if err == nil {
		return found{rec: rec, key: key}, nil
	}
	if !errors.Is(err, common.ErrDecryption) {
		return found{}, err
	}

	rec, err = newRepo.GetRaw(ctx, key)
	if err != nil {
		return found{}, err
	}
	return found{rec: rec, key: key, current: true}, nil
}
