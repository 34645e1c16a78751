package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// The kernel and the engines on top of it never log on their own sink;
// they all hang off one process-wide root installed by Setup. Before
// Setup runs the root is a no-op, so constructing a kernel in tests
// produces no output.
var root = zerolog.Nop()

// Options configure the process-wide log sink.
type Options struct {
	// Level is a zerolog level name ("trace" through "error"); empty
	// selects info. Kernel delivery paths log at debug, so info keeps
	// the bus hot path free of I/O.
	Level string

	// Console switches from JSON lines to human-readable console
	// output.
	Console bool

	// Writer receives the output; nil selects stderr.
	Writer io.Writer
}

// Setup installs the process logger. Subsystem loggers created before
// Setup keep the earlier sink, so call it before constructing a kernel.
func Setup(opts Options) error {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	root = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return nil
}

// Subsystem returns the logger one kernel subsystem hangs its events off:
// "kernel", "hsm", "reactor" and so on. Every line it emits carries the
// subsystem name.
func Subsystem(name string) zerolog.Logger {
	return root.With().Str("subsystem", name).Logger()
}

// ForTask tags a subsystem logger with the task it services, so one
// actor's lifecycle can be followed through the shared registry and bus.
func ForTask(l zerolog.Logger, task string) zerolog.Logger {
	return l.With().Str("task", task).Logger()
}

// ForTopic tags a subsystem logger with an event topic, for code that
// follows one event name across producers and subscribers.
func ForTopic(l zerolog.Logger, topic string) zerolog.Logger {
	return l.With().Str("topic", topic).Logger()
}
