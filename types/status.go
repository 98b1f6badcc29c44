package types

import "fmt"

// ExitKind discriminates the ways a test subprocess can finish.
type ExitKind string

const (
	// ExitKindCode means the process exited normally with a code.
	ExitKindCode ExitKind = "exit"
	// ExitKindSignaled means the process was terminated by a signal.
	ExitKindSignaled ExitKind = "signaled"
	// ExitKindTimedOut means the process exceeded its timeout and was killed.
	ExitKindTimedOut ExitKind = "timed_out"
	// ExitKindSpawnFailed means the process never started.
	ExitKindSpawnFailed ExitKind = "spawn_failed"
)

// ExitStatus is the structured exit state of one test subprocess. Exactly one
// of Code, Signal or Reason is meaningful, selected by Kind.
type ExitStatus struct {
	Kind   ExitKind `json:"kind"`
	Code   *int     `json:"code,omitempty"`
	Signal *int     `json:"signal,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// ExitCode builds a status for a process that exited normally.
func ExitCode(code int) ExitStatus {
	return ExitStatus{Kind: ExitKindCode, Code: &code}
}

// Signaled builds a status for a process terminated by a signal.
func Signaled(signal int) ExitStatus {
	return ExitStatus{Kind: ExitKindSignaled, Signal: &signal}
}

// TimedOut builds a status for a process killed after exceeding its timeout.
func TimedOut() ExitStatus {
	return ExitStatus{Kind: ExitKindTimedOut}
}

// SpawnFailed builds a status for a process that never started.
func SpawnFailed(reason string) ExitStatus {
	return ExitStatus{Kind: ExitKindSpawnFailed, Reason: reason}
}

// Success reports whether the process exited normally with code zero.
func (s ExitStatus) Success() bool {
	return s.Kind == ExitKindCode && s.Code != nil && *s.Code == 0
}

// Failed reports whether the status alone makes the task a batch failure,
// independent of any baseline comparison.
func (s ExitStatus) Failed() bool {
	return s.Kind == ExitKindTimedOut || s.Kind == ExitKindSpawnFailed
}

// Equal reports whether two statuses match for comparison purposes.
// A timed-out status never equals any other status, including another
// timed-out one: a partial run is never a trusted point of comparison.
func (s ExitStatus) Equal(o ExitStatus) bool {
	if s.Kind == ExitKindTimedOut || o.Kind == ExitKindTimedOut {
		return false
	}
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case ExitKindCode:
		return intPtrEqual(s.Code, o.Code)
	case ExitKindSignaled:
		return intPtrEqual(s.Signal, o.Signal)
	case ExitKindSpawnFailed:
		return s.Reason == o.Reason
	}
	return true
}

func (s ExitStatus) String() string {
	switch s.Kind {
	case ExitKindCode:
		if s.Code != nil {
			return fmt.Sprintf("exit %d", *s.Code)
		}
		return "exit"
	case ExitKindSignaled:
		if s.Signal != nil {
			return fmt.Sprintf("signaled %d", *s.Signal)
		}
		return "signaled"
	case ExitKindTimedOut:
		return "timed out"
	case ExitKindSpawnFailed:
		return fmt.Sprintf("spawn failed: %s", s.Reason)
	}
	return string(s.Kind)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
