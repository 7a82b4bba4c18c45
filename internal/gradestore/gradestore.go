// Package gradestore persists classes, rosters, curriculum objectives, scores and thresholds.
package gradestore

import (
	"sync"

	"github.com/raporkit/rapor/internal/contract"
)

// StoreManagerImpl hands out the grade store.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointer during initialization
	grades       contract.GradeStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// NewStoreManager wraps an already opened store.
func NewStoreManager(store contract.GradeStore) *StoreManagerImpl {
	return &StoreManagerImpl{grades: store}
}

// GetGradeStore returns the grade store.
func (mgr *StoreManagerImpl) GetGradeStore() contract.GradeStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.grades
}
