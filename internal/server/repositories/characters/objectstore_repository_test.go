package characters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/cryptox"
	"github.com/dmitrijs2005/sheetkeeper/internal/objectstore"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*ObjectStoreRepository, *objectstore.MemoryStore) {
	t.Helper()
	store := objectstore.NewMemoryStore()
	repo := NewObjectStoreRepository(store, cryptox.NewCipher("passphrase"), "preciousdays/")
	repo.now = func() time.Time { return time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC) }
	return repo, store
}

type failingStore struct {
	objectstore.Store
	err error
}

func (f *failingStore) Get(context.Context, string) (*objectstore.Object, error) { return nil, f.err }
func (f *failingStore) Put(context.Context, string, []byte, objectstore.PutOptions) (string, error) {
	return "", f.err
}
func (f *failingStore) Delete(context.Context, string) error { return f.err }
func (f *failingStore) List(context.Context, string) ([]string, error) { return nil, f.err }

func TestKeys(t *testing.T) {
	repo, _ := newRepo(t)

	assert.Equal(t, "preciousdays/c1.json", repo.CanonicalKey("c1"))
	assert.Equal(t, "c1.bin", repo.LegacyKey("c1"))
	assert.Equal(t, "preciousdays/index.json", repo.IndexKey())

	assert.True(t, repo.IsRecordKey("preciousdays/c1.json"))
	assert.True(t, repo.IsRecordKey("c1.bin"))
	assert.False(t, repo.IsRecordKey("preciousdays/index.json"))
	assert.False(t, repo.IsRecordKey("preciousdays/avatar.png"))
}

func TestPutGet_RoundTrip(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()

	in := &models.Character{
		ID:            "c1",
		Password:      "secret",
		CharacterName: "Aria",
		UpdatedAt:     "1999-01-01T00:00:00.000Z",
		Skills:        []models.Skill{{ID: "s1", Name: "Blink", Level: 2}},
	}

	saved, err := repo.Put(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-06T07:08:09.000Z", saved.UpdatedAt, "caller supplied timestamp must be overwritten")
	assert.Equal(t, "1999-01-01T00:00:00.000Z", in.UpdatedAt, "caller value must not be mutated")

	obj, err := store.Get(ctx, "preciousdays/c1.json")
	require.NoError(t, err)
	assert.NotContains(t, string(obj.Body), "Aria", "payload must be encrypted at rest")

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestPut_IsFullOverwrite(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.Put(ctx, &models.Character{ID: "c1", CharacterName: "Aria", PlayerName: "Mika"})
	require.NoError(t, err)
	_, err = repo.Put(ctx, &models.Character{ID: "c1", CharacterName: "Aria II"})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Aria II", got.CharacterName)
	assert.Empty(t, got.PlayerName)
}

func TestPut_InvalidID(t *testing.T) {
	repo, _ := newRepo(t)

	for _, id := range []string{"", "a/b", "..", `x\y`} {
		_, err := repo.Put(context.Background(), &models.Character{ID: id})
		assert.ErrorIs(t, err, common.ErrInvalidRecord, "id %q", id)
	}
	_, err := repo.Put(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrInvalidRecord)
}

func TestGet_NotFoundVersusDecryption(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NotErrorIs(t, err, common.ErrDecryption)

	_, err = store.Put(ctx, "preciousdays/junk.json", []byte("not encrypted at all"), objectstore.PutOptions{})
	require.NoError(t, err)
	_, err = repo.Get(ctx, "junk")
	assert.ErrorIs(t, err, common.ErrDecryption)
	assert.NotErrorIs(t, err, common.ErrNotFound)

	other := NewObjectStoreRepository(store, cryptox.NewCipher("another passphrase"), "preciousdays")
	_, err = other.Put(ctx, &models.Character{ID: "foreign", CharacterName: "Rin"})
	require.NoError(t, err)
	_, err = repo.Get(ctx, "foreign")
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestDelete_RemovesBothKeysAndIsIdempotent(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()

	_, err := repo.Put(ctx, &models.Character{ID: "c1"})
	require.NoError(t, err)
	_, err = store.Put(ctx, "c1.bin", []byte("legacy"), objectstore.PutOptions{})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "c1"))
	require.NoError(t, repo.Delete(ctx, "c1"))

	keys, err := repo.ListRawKeys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = repo.Get(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteLegacy_KeepsCanonical(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()

	_, err := repo.Put(ctx, &models.Character{ID: "c1"})
	require.NoError(t, err)
	_, err = store.Put(ctx, "c1.bin", []byte("legacy"), objectstore.PutOptions{})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteLegacy(ctx, "c1"))

	keys, err := repo.ListRawKeys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"preciousdays/c1.json"}, keys)
}

func TestStorageErrorsPropagate(t *testing.T) {
	boom := errors.Join(common.ErrStorage, errors.New("throttled"))
	repo := NewObjectStoreRepository(&failingStore{err: boom}, cryptox.NewCipher("k"), "preciousdays")
	ctx := context.Background()

	_, err := repo.Get(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrStorage)

	_, err = repo.Put(ctx, &models.Character{ID: "c1"})
	assert.ErrorIs(t, err, common.ErrStorage)

	assert.ErrorIs(t, repo.Delete(ctx, "c1"), common.ErrStorage)

	_, err = repo.ListRawKeys(ctx, "")
	assert.ErrorIs(t, err, common.ErrStorage)
}
