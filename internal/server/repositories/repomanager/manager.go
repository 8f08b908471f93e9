// Package repomanager builds the repositories that share one object store:
// encrypted character records and the plaintext summary index.
package repomanager

import (
	"github.com/dmitrijs2005/sheetkeeper/internal/objectstore"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/characters"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/index"
)

type RepositoryManager interface {
	Characters() characters.Repository
	Index() index.Repository
}

type ObjectStoreRepositoryManager struct {
	characters *characters.ObjectStoreRepository
	index      *index.ObjectStoreRepository
}

func NewObjectStoreRepositoryManager(store objectstore.Store, sealer characters.Sealer, namespace string) *ObjectStoreRepositoryManager {
	chars := characters.NewObjectStoreRepository(store, sealer, namespace)
	return &ObjectStoreRepositoryManager{
		characters: chars,
		index:      index.NewObjectStoreRepository(store, chars.IndexKey()),
	}
}

func (m *ObjectStoreRepositoryManager) Characters() characters.Repository {
	return m.characters
}

func (m *ObjectStoreRepositoryManager) Index() index.Repository {
	return m.index
}
