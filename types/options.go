package types

import (
	"fmt"
	"time"
)

// Built-in option defaults, applied to any field left unset by every other
// configuration layer.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultStdoutMode = StreamModeBoth
	DefaultStderrMode = StreamModePrint
)

// Options is the fully resolved batch configuration. It is what gets
// persisted as a database's global_options and snapshotted into each record.
type Options struct {
	Command     string            `json:"command" yaml:"command"`
	Directory   string            `json:"directory,omitempty" yaml:"directory"`
	Files       string            `json:"files,omitempty" yaml:"files"`
	Env         map[string]string `json:"env,omitempty" yaml:"env"`
	PreserveEnv bool              `json:"preserve_env" yaml:"preserve_env"`
	Timeout     Duration          `json:"timeout" yaml:"timeout"`
	StdoutMode  StreamMode        `json:"stdout_mode" yaml:"stdout_mode"`
	StderrMode  StreamMode        `json:"stderr_mode" yaml:"stderr_mode"`
}

// Overrides is a partial Options: nil fields are "not specified". It models
// one configuration layer (the defaults file or command-line flags) so that
// precedence can be applied field by field.
type Overrides struct {
	Command     *string           `yaml:"command"`
	Directory   *string           `yaml:"directory"`
	Files       *string           `yaml:"files"`
	Env         map[string]string `yaml:"env"`
	PreserveEnv *bool             `yaml:"preserve_env"`
	Timeout     *Duration         `yaml:"timeout"`
	StdoutMode  *StreamMode       `yaml:"stdout_mode"`
	StderrMode  *StreamMode       `yaml:"stderr_mode"`
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:    Duration(DefaultTimeout),
		StdoutMode: DefaultStdoutMode,
		StderrMode: DefaultStderrMode,
	}
}

// Apply returns a copy of o with every specified override applied on top.
// Environment overrides win per key; stored keys they don't name are kept.
func (o Options) Apply(ov Overrides) Options {
	out := o
	if ov.Command != nil {
		out.Command = *ov.Command
	}
	if ov.Directory != nil {
		out.Directory = *ov.Directory
	}
	if ov.Files != nil {
		out.Files = *ov.Files
	}
	if len(ov.Env) > 0 {
		merged := make(map[string]string, len(o.Env)+len(ov.Env))
		for k, v := range o.Env {
			merged[k] = v
		}
		for k, v := range ov.Env {
			merged[k] = v
		}
		out.Env = merged
	}
	if ov.PreserveEnv != nil {
		out.PreserveEnv = *ov.PreserveEnv
	}
	if ov.Timeout != nil {
		out.Timeout = *ov.Timeout
	}
	if ov.StdoutMode != nil {
		out.StdoutMode = *ov.StdoutMode
	}
	if ov.StderrMode != nil {
		out.StderrMode = *ov.StderrMode
	}
	return out
}

// Normalize fills any field a sparse source (an old database file, say) left
// zero with its built-in default.
func (o Options) Normalize() Options {
	out := o
	if out.Timeout <= 0 {
		out.Timeout = Duration(DefaultTimeout)
	}
	if out.StdoutMode == "" {
		out.StdoutMode = DefaultStdoutMode
	}
	if out.StderrMode == "" {
		out.StderrMode = DefaultStderrMode
	}
	return out
}

// Validate checks that the resolved options can drive a batch.
func (o Options) Validate() error {
	if o.Command == "" {
		return fmt.Errorf("command must not be empty")
	}
	if !o.StdoutMode.Valid() {
		return fmt.Errorf("invalid stdout mode %q", o.StdoutMode)
	}
	if !o.StderrMode.Valid() {
		return fmt.Errorf("invalid stderr mode %q", o.StderrMode)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", o.Timeout)
	}
	return nil
}

// TestCase builds the immutable unit of work for one input file.
func (o Options) TestCase(filePath string) TestCase {
	return TestCase{
		FilePath:    filePath,
		Command:     o.Command,
		Directory:   o.Directory,
		Env:         o.Env,
		PreserveEnv: o.PreserveEnv,
		Timeout:     o.Timeout.Duration(),
		StdoutMode:  o.StdoutMode,
		StderrMode:  o.StderrMode,
	}
}
