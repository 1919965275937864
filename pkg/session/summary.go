package session

import (
	"time"

	"github.com/entrhq/uirunner/pkg/command"
)

// Summary aggregates the command history.
type Summary struct {
	SessionID string        `json:"session_id" yaml:"session_id"`
	Total     int           `json:"total" yaml:"total"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`

	ThinkTime      time.Duration `json:"think_time" yaml:"think_time"`
	TransitionTime time.Duration `json:"transition_time" yaml:"transition_time"`
	ExecutionTime  time.Duration `json:"execution_time" yaml:"execution_time"`

	// FailuresByKind counts failed commands per failure kind.
	FailuresByKind map[string]int `json:"failures_by_kind,omitempty" yaml:"failures_by_kind,omitempty"`
}

// Summary totals the recorded commands.
func (c *Context) Summary() Summary {
	s := Summarize(c.history)
	s.SessionID = c.id
	s.Elapsed = c.clock.Now().Sub(c.started)
	return s
}

// Summarize totals a list of commands.
func Summarize(cmds []command.Command) Summary {
	s := Summary{Total: len(cmds)}
	for _, cmd := range cmds {
		switch cmd.Status {
		case command.StatusSucceeded:
			s.Succeeded++
		case command.StatusFailed:
			s.Failed++
			if cmd.Failure != nil {
				if s.FailuresByKind == nil {
					s.FailuresByKind = make(map[string]int)
				}
				s.FailuresByKind[cmd.Failure.Kind]++
			}
		}
		s.ThinkTime += cmd.ThinkTime
		s.TransitionTime += cmd.TransitionTime
		s.ExecutionTime += cmd.ExecutionTime
	}
	return s
}
