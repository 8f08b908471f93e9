package characters

import (
	"context"

	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
)

// Repository is the authoritative store of individual character records.
type Repository interface {
	Get(ctx context.Context, id string) (*models.Character, error)
	GetRaw(ctx context.Context, key string) (*models.Character, error)
	Put(ctx context.Context, c *models.Character) (*models.Character, error)
	Delete(ctx context.Context, id string) error
	DeleteLegacy(ctx context.Context, id string) error
	ListRawKeys(ctx context.Context, prefix string) ([]string, error)

	CanonicalKey(id string) string
	LegacyKey(id string) string
	IsRecordKey(key string) bool
}

// Sealer encrypts and decrypts record payloads. *cryptox.Cipher satisfies it.
type Sealer interface {
	Seal(v any) ([]byte, error)
	Open(blob []byte, v any) error
}
