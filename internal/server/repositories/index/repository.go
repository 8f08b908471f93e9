package index

import (
	"context"

	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
)

// Snapshot is the index as read from storage. ETag is empty and Exists is
// false when no index object has been written yet.
type Snapshot struct {
	Entries []models.Summary
	ETag    string
	Exists  bool
}

// Repository persists the summary index as a single object.
type Repository interface {
	Load(ctx context.Context) (*Snapshot, error)
	// Save writes entries only if the stored index still matches prev.
	Save(ctx context.Context, entries []models.Summary, prev *Snapshot) error
	// Overwrite writes entries unconditionally.
	Overwrite(ctx context.Context, entries []models.Summary) error
}
