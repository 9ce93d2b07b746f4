package app

import (
	"sync"

	"granttrack/domain/core"
)

// datasetLocks serializes mutations per dataset. A second writer is refused
// rather than queued so the caller can report the dataset as busy.
type datasetLocks struct {
	mu   sync.Mutex
	held map[core.DatasetID]bool
}

func newDatasetLocks() *datasetLocks {
	return &datasetLocks{held: make(map[core.DatasetID]bool)}
}

// tryLock claims id and returns its release func, or false when already held
func (l *datasetLocks) tryLock(id core.DatasetID) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[id] {
		return nil, false
	}
	l.held[id] = true
	return func() {
		l.mu.Lock()
		delete(l.held, id)
		l.mu.Unlock()
	}, true
}
