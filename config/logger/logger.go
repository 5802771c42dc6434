// Package logger builds the shared zap logger used by every wakequeue
// binary. Routine output goes to stdout behind a dynamically adjustable
// level, errors always reach stderr; editing logger.level in config.yaml
// retunes a running process without a restart.
package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	config "github.com/wakequeue/wakequeue/config/utils"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// level gates the stdout core; shared so a live config edit applies to the
// whole process.
var level zap.AtomicLevel

// Build constructs the process logger from the logger config section and
// installs it as the zap global.
func Build(cfg *config.Logger) *zap.Logger {
	parsed, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		log.Fatalf("invalid logger.level %q: %v", cfg.Level, err)
	}
	level = parsed

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "console":
		encoder = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	}

	errorOnly := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})
	routine := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return level.Enabled(lvl) && lvl < zapcore.ErrorLevel
	})

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	built := zap.New(zapcore.NewTee(
		zapcore.NewCore(encoder, os.Stdout, routine),
		zapcore.NewCore(encoder, os.Stderr, errorOnly),
	), opts...)
	zap.ReplaceGlobals(built)

	// Follow logger.level edits in the watched config file.
	viper.OnConfigChange(func(ev fsnotify.Event) {
		if ev.Op&fsnotify.Create == 0 {
			SetLevel(viper.GetString("logger.level"))
		}
	})
	viper.WatchConfig()

	return built
}

// SetLevel retunes the stdout core at runtime. The stderr core is level
// filtered independently, so errors keep flowing regardless.
func SetLevel(raw string) {
	lvl, err := zapcore.ParseLevel(raw)
	if err != nil {
		zap.L().Error("Ignoring unparseable log level", zap.String("value", raw), zap.Error(err))
		return
	}
	level.SetLevel(lvl)
	zap.L().Info("Log level updated", zap.String("value", raw))
}
