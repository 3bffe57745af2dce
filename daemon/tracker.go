package daemon

import (
	"sync"

	"github.com/sasta-kro/dockyard/models"
)

// buildTracker is the per-slug mutual exclusion set for builds. A slug is
// tracked from the moment its deploy or rebuild task begins until the task
// finishes, successfully or not. The check-and-insert in tryBegin is a single
// critical section, so two concurrent tasks can never both claim a slug.
//
// The tracker also answers status queries: a tracked slug is reported as
// Building or Rebuilding instead of whatever the engine happens to observe
// mid-rollover.
type buildTracker struct {
	mu     sync.Mutex
	active map[string]models.JobKind
}

func newBuildTracker() *buildTracker {
	return &buildTracker{active: make(map[string]models.JobKind)}
}

// tryBegin claims the slug for a build of the given kind. Returns false when
// a build for the slug is already in flight; the caller drops the job.
func (t *buildTracker) tryBegin(slug string, kind models.JobKind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.active[slug]; busy {
		return false
	}
	t.active[slug] = kind
	return true
}

// end releases the slug. Must be called exactly once per successful tryBegin.
func (t *buildTracker) end(slug string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, slug)
}

// kind reports the in-flight build kind for a slug, if any.
func (t *buildTracker) kind(slug string) (models.JobKind, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kind, ok := t.active[slug]
	return kind, ok
}
