package runner

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// Progress reporting cadence: emit promptly while tasks are completing, then
// back off exponentially during long quiet stretches so a slow batch does not
// flood the log.
const (
	progressPollInterval    = 250 * time.Millisecond
	initialProgressInterval = 500 * time.Millisecond
	maxProgressInterval     = 30 * time.Second
)

// Tracker counts task starts and finishes and periodically reports them from
// a background goroutine. Workers only touch atomic counters, so the tracker
// can never serialize or slow task execution.
type Tracker struct {
	log   log.Logger
	total int

	started  atomic.Int64
	finished atomic.Int64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewTracker creates a tracker for a batch of total tasks.
func NewTracker(logger log.Logger, total int) *Tracker {
	if logger == nil {
		logger = log.Root()
	}
	return &Tracker{
		log:    logger,
		total:  total,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// TaskStarted records one task's dispatch.
func (t *Tracker) TaskStarted() {
	t.started.Add(1)
}

// TaskFinished records one task's completion.
func (t *Tracker) TaskFinished() {
	t.finished.Add(1)
}

// Started returns the number of dispatched tasks.
func (t *Tracker) Started() int64 {
	return t.started.Load()
}

// Finished returns the number of completed tasks.
func (t *Tracker) Finished() int64 {
	return t.finished.Load()
}

// Start launches the reporting goroutine. Stop must be called when the batch
// completes.
func (t *Tracker) Start() {
	go t.loop()
}

// Stop terminates the reporting goroutine and waits for it to exit. Safe to
// call more than once.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	<-t.doneCh
}

func (t *Tracker) loop() {
	defer close(t.doneCh)

	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	interval := initialProgressInterval
	last := int64(0)
	lastEmit := time.Now()
	start := time.Now()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
		}

		finished := t.finished.Load()
		switch {
		case finished != last:
			// Progress was made: report promptly and reset the backoff.
			t.emit(finished, start)
			last = finished
			lastEmit = time.Now()
			interval = initialProgressInterval
		case time.Since(lastEmit) >= interval:
			t.emit(finished, start)
			lastEmit = time.Now()
			interval = nextInterval(interval)
		}
	}
}

func (t *Tracker) emit(finished int64, start time.Time) {
	t.log.Debug("Progress",
		"finished", finished,
		"started", t.started.Load(),
		"total", t.total,
		"elapsed", time.Since(start).Truncate(time.Second))
}

// nextInterval doubles the reporting interval up to the ceiling.
func nextInterval(d time.Duration) time.Duration {
	d *= 2
	if d > maxProgressInterval {
		return maxProgressInterval
	}
	return d
}
