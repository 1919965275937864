// Package report exports a session's command history as JSON or YAML and
// renders it as a terminal table.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/uirunner/pkg/command"
	"github.com/entrhq/uirunner/pkg/session"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a written report.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Entry is one command as it appears in a report.
type Entry struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Attempt        int       `json:"attempt" yaml:"attempt"`
	Status         string    `json:"status" yaml:"status"`
	Success        *bool     `json:"success" yaml:"success"`
	Start          time.Time `json:"start" yaml:"start"`
	Stop           time.Time `json:"stop" yaml:"stop"`
	ThinkTime      string    `json:"think_time" yaml:"think_time"`
	TransitionTime string    `json:"transition_time" yaml:"transition_time"`
	ExecutionTime  string    `json:"execution_time" yaml:"execution_time"`
	FailureKind    string    `json:"failure_kind,omitempty" yaml:"failure_kind,omitempty"`
	FailureMessage string    `json:"failure_message,omitempty" yaml:"failure_message,omitempty"`
}

// Totals is the report's aggregate section.
type Totals struct {
	SessionID      string         `json:"session_id" yaml:"session_id"`
	Total          int            `json:"total" yaml:"total"`
	Succeeded      int            `json:"succeeded" yaml:"succeeded"`
	Failed         int            `json:"failed" yaml:"failed"`
	Elapsed        string         `json:"elapsed" yaml:"elapsed"`
	ThinkTime      string         `json:"think_time" yaml:"think_time"`
	TransitionTime string         `json:"transition_time" yaml:"transition_time"`
	ExecutionTime  string         `json:"execution_time" yaml:"execution_time"`
	FailuresByKind map[string]int `json:"failures_by_kind,omitempty" yaml:"failures_by_kind,omitempty"`
}

// Report is a point-in-time export of a session.
type Report struct {
	Generated time.Time `json:"generated" yaml:"generated"`
	Totals    Totals    `json:"summary" yaml:"summary"`
	Commands  []Entry   `json:"commands" yaml:"commands"`
}

// New builds a report from a session's history.
func New(s *session.Context) Report {
	return Build(s.Summary(), s.Commands(), s.Clock().Now())
}

// Build assembles a report from a summary and a command list.
func Build(sum session.Summary, cmds []command.Command, generated time.Time) Report {
	r := Report{
		Generated: generated,
		Totals: Totals{
			SessionID:      sum.SessionID,
			Total:          sum.Total,
			Succeeded:      sum.Succeeded,
			Failed:         sum.Failed,
			Elapsed:        sum.Elapsed.String(),
			ThinkTime:      sum.ThinkTime.String(),
			TransitionTime: sum.TransitionTime.String(),
			ExecutionTime:  sum.ExecutionTime.String(),
			FailuresByKind: sum.FailuresByKind,
		},
		Commands: make([]Entry, 0, len(cmds)),
	}
	for _, cmd := range cmds {
		r.Commands = append(r.Commands, entry(cmd))
	}
	return r
}

func entry(cmd command.Command) Entry {
	e := Entry{
		ID:             cmd.ID,
		Name:           cmd.Name,
		Attempt:        cmd.Attempts,
		Status:         cmd.Status.String(),
		Start:          cmd.Start,
		Stop:           cmd.Stop,
		ThinkTime:      cmd.ThinkTime.String(),
		TransitionTime: cmd.TransitionTime.String(),
		ExecutionTime:  cmd.ExecutionTime.String(),
	}
	if ok, known := cmd.Success(); known {
		e.Success = &ok
	}
	if cmd.Failure != nil {
		e.FailureKind = cmd.Failure.Kind
		e.FailureMessage = cmd.Failure.Message
	}
	return e
}

// Write encodes r to w.
func (r Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteFile writes r to path, choosing the format from its extension.
func (r Report) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := r.Write(f, FormatFromPath(path)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
