package inputs

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log event names emitted by the Resolver.
const (
	EventTargetResolved   = "target.resolved"
	EventTargetUnresolved = "target.unresolved"
	EventTargetDuplicate  = "target.duplicate"
	EventKindUnresolved   = "kind.unresolved"
	EventActivityFailed   = "activity.failed"
)

// LogEvent describes one resolution diagnostic.
type LogEvent struct {
	Event  string
	Kind   Kind
	Target string
	Source string
	// Names lists the unresolved targets of a kind.unresolved event.
	Names []string
	Err   error
}

// Logger records resolution diagnostics.
type Logger interface {
	LogEvent(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogEvent implements Logger.
func (f LoggerFunc) LogEvent(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvent(LogEvent) {}

// NopLogger discards every event.
func NopLogger() Logger {
	return noopLogger{}
}

type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger writes diagnostics through logger. Resolved targets are
// logged at debug, duplicates at info and unresolved targets at warn.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return zerologLogger{logger: logger}
}

func (z zerologLogger) LogEvent(event LogEvent) {
	var e *zerolog.Event
	switch event.Event {
	case EventTargetResolved:
		e = z.logger.Debug()
	case EventTargetDuplicate:
		e = z.logger.Info()
	case EventTargetUnresolved, EventKindUnresolved:
		e = z.logger.Warn()
	case EventActivityFailed:
		e = z.logger.Error()
	default:
		e = z.logger.Info()
	}
	if event.Err != nil {
		e = e.Err(event.Err)
	}
	if event.Target != "" {
		e = e.Str("kind", event.Kind.String()).Str("target", event.Target)
	} else if len(event.Names) > 0 {
		e = e.Str("kind", event.Kind.String())
	}
	if event.Source != "" {
		e = e.Str("source", event.Source)
	}
	if len(event.Names) > 0 {
		e = e.Strs("unresolved", event.Names)
	}
	e.Msg(event.Event)
}

func defaultLogger() Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return NewZerologLogger(zerolog.New(output).With().Timestamp().Logger().Level(zerolog.InfoLevel))
}
