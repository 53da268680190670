package session

import (
	"context"

	"github.com/charmbracelet/log"
)

// Level is the severity of a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Toast is a transient notification.
type Toast struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier shows toasts to the user.
type Notifier interface {
	Notify(ctx context.Context, t Toast)
}

// NotifierFunc adapts a func to Notifier.
type NotifierFunc func(ctx context.Context, t Toast)

func (f NotifierFunc) Notify(ctx context.Context, t Toast) { f(ctx, t) }

// LogNotifier writes toasts to a logger.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(_ context.Context, t Toast) {
	l := n.Logger
	if l == nil {
		l = log.Default()
	}
	switch t.Level {
	case LevelError:
		l.Error(t.Message)
	default:
		l.Info(t.Message)
	}
}
