// Package logging provides the structured, context-scoped logger used
// throughout the verification engine, modeled on the ctx-carried
// *logrus.Entry pattern: a base entry is attached to a context.Context
// once fields are known (transaction reference, engine instance id,
// correlation id), and every subsequent call site pulls it back out with
// Ctx instead of threading a logger through every function signature.
package logging

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var (
	baseLogger     = logrus.New()
	baseLoggerOnce sync.Once
)

func base() *logrus.Logger {
	baseLoggerOnce.Do(func() {
		baseLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		baseLogger.SetOutput(os.Stderr)
		baseLogger.SetLevel(logrus.InfoLevel)
	})
	return baseLogger
}

// SetLevel sets the global minimum log level. Valid values are the
// logrus level names: "panic", "fatal", "error", "warn", "info", "debug",
// "trace".
func SetLevel(levelName string) error {
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return err
	}
	base().SetLevel(level)
	return nil
}

// SetOutput redirects where the base logger writes. Used by tests to
// capture output.
func SetOutput(w io.Writer) {
	base().SetOutput(w)
}

// Ctx returns the *logrus.Entry attached to ctx via Set, or a fresh entry
// off the base logger if none was attached.
func Ctx(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(base())
}

// Set returns a new context carrying entry, to be retrieved later with Ctx.
func Set(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

// WithFields is a convenience for Set(ctx, Ctx(ctx).WithFields(fields)).
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return Set(ctx, Ctx(ctx).WithFields(fields))
}

func Info(args ...interface{})                 { Ctx(context.Background()).Info(args...) }
func Infof(format string, args ...interface{})  { Ctx(context.Background()).Infof(format, args...) }
func Warn(args ...interface{})                  { Ctx(context.Background()).Warn(args...) }
func Warnf(format string, args ...interface{})  { Ctx(context.Background()).Warnf(format, args...) }
func Error(args ...interface{})                 { Ctx(context.Background()).Error(args...) }
func Errorf(format string, args ...interface{}) { Ctx(context.Background()).Errorf(format, args...) }
func Debug(args ...interface{})                 { Ctx(context.Background()).Debug(args...) }
func Debugf(format string, args ...interface{}) { Ctx(context.Background()).Debugf(format, args...) }
func Fatalf(format string, args ...interface{}) { Ctx(context.Background()).Fatalf(format, args...) }
