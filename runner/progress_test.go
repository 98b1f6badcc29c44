package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextIntervalDoublesUpToCeiling(t *testing.T) {
	assert.Equal(t, 1*time.Second, nextInterval(500*time.Millisecond))
	assert.Equal(t, 16*time.Second, nextInterval(8*time.Second))
	assert.Equal(t, maxProgressInterval, nextInterval(16*time.Second))
	assert.Equal(t, maxProgressInterval, nextInterval(maxProgressInterval))
}

func TestTrackerCounters(t *testing.T) {
	tr := NewTracker(nil, 3)
	tr.TaskStarted()
	tr.TaskStarted()
	tr.TaskFinished()

	assert.Equal(t, int64(2), tr.Started())
	assert.Equal(t, int64(1), tr.Finished())
}

func TestTrackerStopIsIdempotent(t *testing.T) {
	tr := NewTracker(nil, 1)
	tr.Start()
	tr.TaskStarted()
	tr.TaskFinished()

	tr.Stop()
	tr.Stop()
}
