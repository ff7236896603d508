package assistant

import (
	"context"
	"sync"
)

// Policy controls how the project assistant applies mutations.
type Policy struct {
	// EnforceStatusGuard makes update_task_status refuse to start or complete
	// a task with incomplete dependencies.
	EnforceStatusGuard bool
	// SerializeProjectMutations allows one chat turn per project between
	// snapshot load and the end of tool execution.
	SerializeProjectMutations bool
	// HistoryLimit is the number of prior chat messages sent with each turn.
	// Zero sends none.
	HistoryLimit int
}

// DefaultPolicy matches the configuration defaults.
func DefaultPolicy() Policy {
	return Policy{
		SerializeProjectMutations: true,
		HistoryLimit:              50,
	}
}

// projectLocks hands out one lock per project. Entries are dropped when the
// last holder or waiter releases.
type projectLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func newProjectLocks() *projectLocks {
	return &projectLocks{entries: make(map[string]*lockEntry)}
}

// acquire blocks until the project's lock is held or ctx is done. The
// returned release func is safe to call more than once.
func (l *projectLocks) acquire(ctx context.Context, projectID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[projectID]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[projectID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(projectID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.unref(projectID, e)
		})
	}, nil
}

func (l *projectLocks) unref(projectID string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, projectID)
	}
}

func (l *projectLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
