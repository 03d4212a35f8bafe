// internal/notify/notifier.go
package notify

import (
	"intern-portal/internal/common/logger"
)

// Notifier surfaces submission lifecycle messages to the user. The CLI uses
// the log-backed implementation; a GUI frontend would supply its own.
type Notifier interface {
	Info(message string)
	Success(message string)
	Warning(message string)
	Error(message string)
}

// LogNotifier routes user-facing messages through the structured logger.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Info(message string) {
	n.logger.Info(message, nil)
}

func (n *LogNotifier) Success(message string) {
	n.logger.Info(message, map[string]interface{}{"status": "success"})
}

func (n *LogNotifier) Warning(message string) {
	n.logger.Warn(message, nil)
}

func (n *LogNotifier) Error(message string) {
	n.logger.Error(message, nil)
}

// NopNotifier discards every message.
type NopNotifier struct{}

func (NopNotifier) Info(string)    {}
func (NopNotifier) Success(string) {}
func (NopNotifier) Warning(string) {}
func (NopNotifier) Error(string)   {}
