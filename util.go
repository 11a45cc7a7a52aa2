package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = newLogger(false)

// newLogger builds the process logger: JSON in production, console otherwise.
func newLogger(production bool) *zap.SugaredLogger {
	encoding, level := "console", zapcore.DebugLevel
	if production {
		encoding, level = "json", zapcore.InfoLevel
	}
	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
	}
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}

// setupLogger replaces the process logger.
func setupLogger(production bool) {
	logger = newLogger(production)
}

// dirExists reports whether path is a directory. Stat failures other than
// a missing path are logged.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logWarn("Cannot stat %s: %v", path, err)
	}
	return err == nil && info.IsDir()
}

// formatUptime renders d as "1 hour, 2 minutes, 3 seconds", dropping
// leading zero units.
func formatUptime(d time.Duration) string {
	hours, minutes, seconds := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	parts := []string{countOf(hours, "hour"), countOf(minutes, "minute"), countOf(seconds, "second")}
	switch {
	case hours > 0:
		return strings.Join(parts, ", ")
	case minutes > 0:
		return strings.Join(parts[1:], ", ")
	default:
		return parts[2]
	}
}

// countOf formats n with unit, pluralized.
func countOf(n int, unit string) string {
	return strconv.Itoa(n) + " " + unit + plural(n)
}

// plural returns "s" if n != 1, otherwise "".
func plural(n int) string {
	return lo.Ternary(n == 1, "", "s")
}

// getEnv parses key from the environment, returning fallback when it is
// unset or does not parse.
func getEnv[T any](key string, fallback T, parse func(string) (T, error)) T {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	v, err := parse(val)
	if err != nil {
		logWarn("Invalid value %q for %s: %v, using default %v", val, key, err, fallback)
		return fallback
	}
	return v
}

func getEnvString(key, fallback string) string {
	return getEnv(key, fallback, func(s string) (string, error) { return s, nil })
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	return getEnv(key, fallback, time.ParseDuration)
}

func getEnvInt(key string, fallback int) int {
	return getEnv(key, fallback, strconv.Atoi)
}

// reqPrefix returns "[request_id=...] " for contexts carrying a request ID.
func reqPrefix(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if reqID, _ := ctx.Value(requestIDKey).(string); reqID != "" {
		return "[request_id=" + reqID + "] "
	}
	return ""
}

func logInfo(format string, v ...any) {
	logger.Infof(format, v...)
}

func logWarn(format string, v ...any) {
	logger.Warnf(format, v...)
}

func logError(format string, v ...any) {
	logger.Errorf(format, v...)
}

// logFatal logs a fatal error and exits.
func logFatal(format string, v ...any) {
	logger.Fatalf(format, v...)
}
