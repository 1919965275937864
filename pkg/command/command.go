// Package command wraps units of UI work in instrumented, recorded commands.
package command

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a Command.
//
//	Created -> Running -> Succeeded | Failed
//
// Retries below the command boundary are invisible here except as elapsed
// time.
type Status int

const (
	StatusCreated Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether s is Succeeded or Failed.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "created":
		*s = StatusCreated
	case "running":
		*s = StatusRunning
	case "succeeded":
		*s = StatusSucceeded
	case "failed":
		*s = StatusFailed
	default:
		return fmt.Errorf("unknown command status %q", string(b))
	}
	return nil
}

// Failure is the error captured from a failed command.
type Failure struct {
	// Kind is the failure class, e.g. "InteractionFailure", or the Go type
	// of an unclassified error.
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
	// Cause is the original error, identical to what the caller received.
	Cause error `json:"-" yaml:"-"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Command is the record of one instrumented unit of UI work. Once recorded
// it is never modified.
type Command struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Attempts int       `json:"attempts" yaml:"attempts"`
	Status   Status    `json:"status" yaml:"status"`
	Start    time.Time `json:"start" yaml:"start"`
	Stop     time.Time `json:"stop" yaml:"stop"`

	ThinkTime time.Duration `json:"think_time" yaml:"think_time"`
	// TransitionTime is the time spent blocked on the UI while the command
	// ran.
	TransitionTime time.Duration `json:"transition_time" yaml:"transition_time"`
	// ExecutionTime is Stop - Start - ThinkTime.
	ExecutionTime time.Duration `json:"execution_time" yaml:"execution_time"`

	Failure *Failure `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Success reports the outcome. known is false while the command has not
// finished.
func (c Command) Success() (ok, known bool) {
	switch c.Status {
	case StatusSucceeded:
		return true, true
	case StatusFailed:
		return false, true
	default:
		return false, false
	}
}

// Duration is the wall time between start and stop.
func (c Command) Duration() time.Duration {
	if c.Stop.IsZero() {
		return 0
	}
	return c.Stop.Sub(c.Start)
}

// MarshalJSON adds a tri-state success field for exporters.
func (c Command) MarshalJSON() ([]byte, error) {
	type plain Command
	var success *bool
	if ok, known := c.Success(); known {
		success = &ok
	}
	return json.Marshal(struct {
		plain
		Success *bool `json:"success"`
	}{plain(c), success})
}
