package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide logger. It is a no-op until Initialize runs, so
// packages can log from tests without setup.
var Log = zap.NewNop()

// Initialize builds a console core plus a rotating JSON file core.
// An empty logFile disables the file core.
func Initialize(level, logFile string) error {
	lvl := parseLevel(level)

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stdout),
		lvl,
	)
	cores := []zapcore.Core{consoleCore}

	if logFile != "" {
		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(jsonCfg),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    50, // megabytes
				MaxBackups: 5,
				MaxAge:     14,
				Compress:   true,
			}),
			lvl,
		)
		cores = append(cores, fileCore)
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	Log.Info("logger pronto", zap.String("level", lvl.String()), zap.String("file", logFile))
	return nil
}

// Named returns a child logger tagged with a component field.
func Named(component string) *zap.Logger {
	return Log.With(zap.String("component", component))
}

func Sync() {
	_ = Log.Sync()
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
