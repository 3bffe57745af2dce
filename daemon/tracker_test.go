package daemon

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sasta-kro/dockyard/models"
)

func TestTrackerMutualExclusion(t *testing.T) {
	tracker := newBuildTracker()

	assert.True(t, tracker.tryBegin("widgets", models.JobDeploy))
	assert.False(t, tracker.tryBegin("widgets", models.JobRebuild))

	// distinct slugs are independent
	assert.True(t, tracker.tryBegin("gadgets", models.JobRebuild))

	kind, busy := tracker.kind("widgets")
	assert.True(t, busy)
	assert.Equal(t, models.JobDeploy, kind)

	tracker.end("widgets")
	_, busy = tracker.kind("widgets")
	assert.False(t, busy)
	assert.True(t, tracker.tryBegin("widgets", models.JobRebuild))
}

func TestTrackerConcurrentClaims(t *testing.T) {
	tracker := newBuildTracker()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tracker.tryBegin("widgets", models.JobRebuild) {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load(), "exactly one goroutine may claim a slug")
}
