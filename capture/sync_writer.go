package capture

import (
	"io"
	"os"
	"sync"
)

// syncWriter serializes whole-chunk writes from concurrent tasks to a shared
// parent stream. Chunks from different tasks may interleave, but never
// mid-write.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Sinks are the parent-process streams that print-mode output is forwarded
// to. Both writers must be safe for concurrent use.
type Sinks struct {
	Stdout io.Writer
	Stderr io.Writer
}

var (
	stdSinksOnce sync.Once
	stdSinks     Sinks
)

// StdSinks returns process-wide synchronized sinks for os.Stdout and
// os.Stderr, shared by every task in the batch.
func StdSinks() Sinks {
	stdSinksOnce.Do(func() {
		stdSinks = Sinks{
			Stdout: &syncWriter{w: os.Stdout},
			Stderr: &syncWriter{w: os.Stderr},
		}
	})
	return stdSinks
}

// NewSinks wraps arbitrary writers with the same synchronization, for tests
// and alternative outputs.
func NewSinks(stdout, stderr io.Writer) Sinks {
	return Sinks{
		Stdout: &syncWriter{w: stdout},
		Stderr: &syncWriter{w: stderr},
	}
}
