package logx

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/datachat-poc/server/internal/core"
)

// Opts controls logger initialisation.
type Opts struct {
	Environment core.Environment
	// Level overrides the environment default when non-empty ("debug", "info", ...).
	Level string
}

var defaultOpts = Opts{Environment: core.Development}

func pick(opts ...Opts) Opts {
	if len(opts) == 0 {
		return defaultOpts
	}
	return opts[0]
}

// Init configures the global zerolog logger. Production keeps the JSON writer
// at info level; every other environment gets a console writer at debug level.
func Init(opts ...Opts) {
	o := pick(opts...)

	if o.Environment.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	} else {
		log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger().Level(zerolog.DebugLevel)
	}

	if o.Level != "" {
		if lvl, err := zerolog.ParseLevel(o.Level); err == nil {
			log.Logger = log.Logger.Level(lvl)
		}
	}
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
