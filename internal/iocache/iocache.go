// Package iocache is for caching reconstructions and tracking analysis runs.
package iocache

import (
	"sync"

	"github.com/SebSchroeter/masterthesis/internal/contract"
)

// CacheStoreManager manages multiple CacheStore instances.
type CacheStoreManager struct {
	sync.RWMutex   // Protects the store pointers during initialization
	reconstruction contract.CacheStore
	analysis       contract.AnalysisStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetReconstructionStore returns the reconstruction CacheStore.
func (mgr *CacheStoreManager) GetReconstructionStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.reconstruction
}

// GetAnalysisStore returns the analysis AnalysisStore.
func (mgr *CacheStoreManager) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.analysis
}
