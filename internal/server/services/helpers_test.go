package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/cryptox"
	"github.com/dmitrijs2005/sheetkeeper/internal/logging"
	"github.com/dmitrijs2005/sheetkeeper/internal/objectstore"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/characters"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/index"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/require"
)

const (
	testNamespace  = "preciousdays"
	testPassphrase = "test passphrase"
	testSecret     = "token secret"
)

type env struct {
	store  *objectstore.MemoryStore
	cipher *cryptox.Cipher
	chars  *characters.ObjectStoreRepository
	idx    *index.ObjectStoreRepository
	index  *IndexService
	svc    *CharacterService
	access *AccessService
}

func fastBackoff() retry.Backoff {
	return retry.WithMaxRetries(indexRetryAttempts-1, retry.NewConstant(time.Millisecond))
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := objectstore.NewMemoryStore()
	cipher := cryptox.NewCipher(testPassphrase)
	chars := characters.NewObjectStoreRepository(store, cipher, testNamespace)
	idx := index.NewObjectStoreRepository(store, chars.IndexKey())

	is := NewIndexService(chars, idx, logging.Discard())
	is.newBackoff = fastBackoff

	return &env{
		store:  store,
		cipher: cipher,
		chars:  chars,
		idx:    idx,
		index:  is,
		svc:    NewCharacterService(chars, is, logging.Discard()),
		access: NewAccessService(chars, testSecret, 24*time.Hour),
	}
}

// putLegacy writes c the way older deployments did: sealed, at <id>.bin.
func (e *env) putLegacy(t *testing.T, c *models.Character) {
	t.Helper()
	blob, err := e.cipher.Seal(c)
	require.NoError(t, err)
	_, err = e.store.Put(context.Background(), c.ID+".bin", blob, objectstore.PutOptions{})
	require.NoError(t, err)
}

func (e *env) indexBytes(t *testing.T) []byte {
	t.Helper()
	obj, err := e.store.Get(context.Background(), e.chars.IndexKey())
	require.NoError(t, err)
	return obj.Body
}

func ids(list []models.Summary) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

func requireSorted(t *testing.T, list []models.Summary) {
	t.Helper()
	seenSample := false
	for i, s := range list {
		if models.IsSample(s.ID) {
			seenSample = true
			if i > 0 && models.IsSample(list[i-1].ID) {
				require.LessOrEqual(t, list[i-1].ID, s.ID, "samples must be ordered by id")
			}
			continue
		}
		require.False(t, seenSample, "user record %s after a sample", s.ID)
		if i > 0 {
			require.GreaterOrEqual(t, list[i-1].UpdatedAt, s.UpdatedAt, "user records must be newest first")
		}
	}
}
