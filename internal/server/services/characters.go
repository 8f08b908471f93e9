package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/logging"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/characters"
	"github.com/google/uuid"
)

// IndexManager is the part of IndexService the character service drives.
type IndexManager interface {
	ListAll(ctx context.Context) ([]models.Summary, error)
	UpsertOnSave(ctx context.Context, c *models.Character) error
	RemoveOnDelete(ctx context.Context, id string) error
	Rebuild(ctx context.Context) ([]models.Summary, error)
}

type CharacterService struct {
	characters characters.Repository
	index      IndexManager
	log        logging.Logger
	newID      func() string

	// set when an index update failed after its record write succeeded
	stale atomic.Bool
}

func NewCharacterService(chars characters.Repository, idx IndexManager, log logging.Logger) *CharacterService {
	return &CharacterService{
		characters: chars,
		index:      idx,
		log:        log.With("module", "characters"),
		newID:      func() string { return uuid.New().String() },
	}
}

// Save persists c, assigning a new id when it has none, and then updates
// the index. Once the record write succeeds the saved record is always
// returned; an index failure is reported alongside it wrapped in
// common.ErrIndexWriteFailed.
func (s *CharacterService) Save(ctx context.Context, c *models.Character) (*models.Character, error) {
	if c == nil {
		return nil, fmt.Errorf("save: %w", common.ErrInvalidRecord)
	}

	rec := *c
	if rec.ID == "" {
		rec.ID = s.newID()
	}

	saved, err := s.characters.Put(ctx, &rec)
	if err != nil {
		return nil, err
	}

	if err := s.index.UpsertOnSave(ctx, saved); err != nil {
		return saved, s.indexFailed(ctx, "upsert", saved.ID, err)
	}
	return saved, nil
}

// Delete removes the record and its index entry.
func (s *CharacterService) Delete(ctx context.Context, id string) error {
	if err := s.characters.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.index.RemoveOnDelete(ctx, id); err != nil {
		return s.indexFailed(ctx, "remove", id, err)
	}
	return nil
}

func (s *CharacterService) indexFailed(ctx context.Context, op, id string, err error) error {
	s.stale.Store(true)
	s.log.Error(ctx, "index update failed, will rebuild on next list", "op", op, "id", id, "err", err)
	return fmt.Errorf("%w: %s %s: %w", common.ErrIndexWriteFailed, op, id, err)
}

func (s *CharacterService) Get(ctx context.Context, id string) (*models.Character, error) {
	return s.characters.Get(ctx, id)
}

// List returns the index. If an earlier index update failed, the index is
// rebuilt first.
func (s *CharacterService) List(ctx context.Context) ([]models.Summary, error) {
	if s.stale.Load() {
		return s.Rebuild(ctx)
	}
	return s.index.ListAll(ctx)
}

func (s *CharacterService) Rebuild(ctx context.Context) ([]models.Summary, error) {
	list, err := s.index.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	s.stale.Store(false)
	return list, nil
}

const copySuffix = " (copy)"

// Duplicate saves a copy of sourceID under a new id with copySuffix appended
// to its name. The copy carries no password and may itself be copied.
func (s *CharacterService) Duplicate(ctx context.Context, sourceID string) (*models.Character, error) {
	src, err := s.characters.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if src.IsCopyProhibited {
		return nil, fmt.Errorf("duplicate %s: %w", sourceID, common.ErrCopyProhibited)
	}

	cp := *src
	cp.ID = ""
	cp.Password = ""
	cp.IsCopyProhibited = false
	cp.CharacterName = src.CharacterName + copySuffix

	return s.Save(ctx, &cp)
}

// Stale reports whether the index is known to lag the records.
func (s *CharacterService) Stale() bool {
	return s.stale.Load()
}
