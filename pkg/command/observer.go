package command

import (
	"github.com/entrhq/uirunner/pkg/logging"
)

// LogObserver writes a line per command to a component logger.
type LogObserver struct {
	logger *logging.Logger
}

// NewLogObserver returns an observer logging to logger.
func NewLogObserver(logger *logging.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) CommandStarted(cmd Command) {
	o.logger.Debugf("command %s started (attempt %d, think %v)", cmd.Name, cmd.Attempts, cmd.ThinkTime)
}

func (o *LogObserver) CommandFinished(cmd Command) {
	l := o.logger.WithFields(map[string]any{
		"command":    cmd.Name,
		"id":         cmd.ID,
		"attempt":    cmd.Attempts,
		"execution":  cmd.ExecutionTime.String(),
		"transition": cmd.TransitionTime.String(),
	})
	if cmd.Failure != nil {
		l.Warnf("command failed: %s: %s", cmd.Failure.Kind, cmd.Failure.Message)
		return
	}
	l.Infof("command succeeded")
}

var _ Observer = (*LogObserver)(nil)
