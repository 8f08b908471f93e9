package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/logging"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/characters"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/index"
	"github.com/sethvargo/go-retry"
)

const (
	indexRetryBase     = 20 * time.Millisecond
	indexRetryAttempts = 5
)

// IndexService keeps the summary index in step with the record store.
// Record writes are authoritative; the index can always be rebuilt from them.
type IndexService struct {
	characters characters.Repository
	index      index.Repository
	log        logging.Logger
	now        func() time.Time
	newBackoff func() retry.Backoff
}

func NewIndexService(chars characters.Repository, idx index.Repository, log logging.Logger) *IndexService {
	return &IndexService{
		characters: chars,
		index:      idx,
		log:        log.With("module", "index"),
		now:        time.Now,
		newBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(indexRetryAttempts-1, retry.NewExponential(indexRetryBase))
		},
	}
}

// ListAll returns the stored index, or an empty slice when none exists.
// A corrupt index is replaced by a rebuild.
func (s *IndexService) ListAll(ctx context.Context) ([]models.Summary, error) {
	snap, err := s.index.Load(ctx)
	if errors.Is(err, common.ErrIndexCorrupt) {
		s.log.Warn(ctx, "index unreadable, rebuilding", "err", err)
		return s.Rebuild(ctx)
	}
	if err != nil {
		return nil, err
	}
	return snap.Entries, nil
}

// UpsertOnSave replaces the entry for c, or appends one, and re-sorts.
func (s *IndexService) UpsertOnSave(ctx context.Context, c *models.Character) error {
	entry := models.Summarize(c, s.now())
	return s.mutate(ctx, func(list []models.Summary) []models.Summary {
		for i := range list {
			if list[i].ID == entry.ID {
				list[i] = entry
				return list
			}
		}
		return append(list, entry)
	})
}

// RemoveOnDelete drops the entry for id. A missing entry is not an error.
func (s *IndexService) RemoveOnDelete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(list []models.Summary) []models.Summary {
		out := list[:0]
		for _, e := range list {
			if e.ID != id {
				out = append(out, e)
			}
		}
		return out
	})
}

// mutate runs a conditional read-modify-write of the index, retrying when
// another writer got there first.
func (s *IndexService) mutate(ctx context.Context, fn func([]models.Summary) []models.Summary) error {
	err := retry.Do(ctx, s.newBackoff(), func(ctx context.Context) error {
		snap, err := s.index.Load(ctx)
		if err != nil {
			return err
		}

		list := fn(snap.Entries)
		models.SortSummaries(list)

		if err := s.index.Save(ctx, list, snap); err != nil {
			if errors.Is(err, common.ErrVersionConflict) {
				s.log.Debug(ctx, "index changed underneath, retrying")
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})

	if errors.Is(err, common.ErrIndexCorrupt) {
		// the record write already happened, so a rebuild picks it up
		s.log.Warn(ctx, "index unreadable during update, rebuilding", "err", err)
		_, err = s.Rebuild(ctx)
	}
	return err
}

type scanned struct {
	rec       *models.Character
	key       string
	canonical bool
}

// Rebuild reconstructs the index from every record in the bucket and
// overwrites the stored index. Unreadable objects are logged and skipped.
// Records found only under a legacy key are rewritten to the canonical key
// and the legacy object removed, so a second run yields the same bytes.
func (s *IndexService) Rebuild(ctx context.Context) ([]models.Summary, error) {
	keys, err := s.characters.ListRawKeys(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("rebuild: list: %w", err)
	}

	found := make(map[string]scanned)
	order := make([]string, 0, len(keys))
	for _, key := range keys {
		if !s.characters.IsRecordKey(key) {
			continue
		}

		rec, err := s.characters.GetRaw(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn(ctx, "skipping unreadable object", "key", key, "err", err)
			continue
		}
		if !characters.ValidID(rec.ID) {
			s.log.Warn(ctx, "skipping object with missing or malformed id", "key", key, "id", rec.ID)
			continue
		}

		cur := scanned{rec: rec, key: key, canonical: key == s.characters.CanonicalKey(rec.ID)}
		prev, seen := found[rec.ID]
		if !seen {
			order = append(order, rec.ID)
		} else if prev.canonical && !cur.canonical {
			continue
		}
		found[rec.ID] = cur
	}

	list := make([]models.Summary, 0, len(found))
	for _, id := range order {
		f := found[id]
		rec := f.rec

		if !f.canonical {
			migrated, err := s.migrate(ctx, f)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, common.ErrStorage) {
					return nil, err
				}
				s.log.Warn(ctx, "skipping record that could not be migrated", "key", f.key, "err", err)
				continue
			}
			rec = migrated
		}

		// records without a timestamp sort as oldest; using the clock here
		// would make repeated rebuilds differ
		list = append(list, models.Summarize(rec, time.Unix(0, 0).UTC()))
	}
	models.SortSummaries(list)

	if err := s.index.Overwrite(ctx, list); err != nil {
		return nil, fmt.Errorf("rebuild: write index: %w", err)
	}

	s.log.Info(ctx, "index rebuilt", "records", len(list))
	return list, nil
}

func (s *IndexService) migrate(ctx context.Context, f scanned) (*models.Character, error) {
	saved, err := s.characters.Put(ctx, f.rec)
	if err != nil {
		return nil, fmt.Errorf("rebuild: migrate %s: %w", f.key, err)
	}

	if f.key == s.characters.LegacyKey(f.rec.ID) {
		if err := s.characters.DeleteLegacy(ctx, f.rec.ID); err != nil {
			return nil, fmt.Errorf("rebuild: remove legacy %s: %w", f.key, err)
		}
	}

	s.log.Info(ctx, "migrated record to canonical key", "id", f.rec.ID, "from", f.key)
	return saved, nil
}
