package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide logger. It is a no-op logger until Initialize runs,
// so packages that log before startup (or in tests) never dereference nil.
var Log = zap.NewNop()

// Initialize builds a logger that writes human-readable lines to stdout and
// JSON lines to a rotated file.
// level: "debug", "info", "warn", "error" (default: "info")
// file: path to log file (default: "autopost.log")
func Initialize(level string, file string) error {
	if file == "" {
		file = "autopost.log"
	}
	if level == "" {
		level = "info"
	}

	lvl := parseLevel(level)

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})

	jsonConfig := zap.NewProductionEncoderConfig()
	jsonConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(os.Stdout), lvl),
		zapcore.NewCore(zapcore.NewJSONEncoder(jsonConfig), fileWriter, lvl),
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	Log.Info("Logger initialized",
		zap.String("level", level),
		zap.String("file", file),
	)
	return nil
}

// Close flushes buffered entries before shutdown
func Close() error {
	if Log != nil {
		return Log.Sync()
	}
	return nil
}

// OrNop returns l, or the global logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l != nil {
		return l
	}
	return Log
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

// Field helpers for the identifiers that show up in most log lines.

func WithRequestID(requestID string) zap.Field {
	return zap.String("request_id", requestID)
}

func WithAccountID(accountID uint) zap.Field {
	return zap.Uint("account_id", accountID)
}

func WithPageID(pageID string) zap.Field {
	return zap.String("page_id", pageID)
}

func WithPostID(postID string) zap.Field {
	return zap.String("post_id", postID)
}

func WithEndpoint(endpoint string) zap.Field {
	return zap.String("endpoint", endpoint)
}

func WithStatus(status int) zap.Field {
	return zap.Int("status", status)
}

func WithDuration(duration interface{}) zap.Field {
	return zap.Any("duration", duration)
}
