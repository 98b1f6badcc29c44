package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// StreamMode controls what happens to one of a subprocess's output streams.
type StreamMode string

const (
	// StreamModeNone discards the stream entirely.
	StreamModeNone StreamMode = "none"
	// StreamModeSave retains the stream's bytes for comparison and persistence.
	StreamModeSave StreamMode = "save"
	// StreamModePrint forwards the stream live to the parent process's
	// corresponding stream without retaining it.
	StreamModePrint StreamMode = "print"
	// StreamModeBoth retains the stream's bytes and forwards them live.
	StreamModeBoth StreamMode = "both"
)

// ParseStreamMode parses a user-supplied stream mode string.
func ParseStreamMode(s string) (StreamMode, error) {
	m := StreamMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("invalid stream mode %q (expected one of none, save, print, both)", s)
	}
	return m, nil
}

// Valid reports whether the mode is one of the four known modes.
func (m StreamMode) Valid() bool {
	switch m {
	case StreamModeNone, StreamModeSave, StreamModePrint, StreamModeBoth:
		return true
	}
	return false
}

// Saves reports whether the stream's bytes are retained for comparison
// and persistence.
func (m StreamMode) Saves() bool {
	return m == StreamModeSave || m == StreamModeBoth
}

// Prints reports whether the stream is forwarded live to the parent stream.
func (m StreamMode) Prints() bool {
	return m == StreamModePrint || m == StreamModeBoth
}

func (m StreamMode) String() string {
	return string(m)
}

// Duration wraps time.Duration with a human-readable JSON/YAML encoding
// ("10s" rather than nanosecond integers) so database files stay diffable.
type Duration time.Duration

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON encodes the duration as a string, e.g. "10s".
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts either a duration string ("10s") or a plain number
// of seconds for hand-written database files.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(value * float64(time.Second)))
	default:
		return fmt.Errorf("invalid duration value %v", v)
	}
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for the defaults file.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs float64
	if err := unmarshal(&secs); err != nil {
		return err
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}
