// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ZSC714725/lithographer/internal/console"
)

// Logger provides a simple logging interface
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// FileSink receives formatted lines for the log file
type FileSink interface {
	Write(line string) error
}

// Hub fans every line out to the console ring, the log file and zap.
// It is created once at startup and handed to whoever needs a Logger.
type Hub struct {
	ring *console.Ring
	file FileSink
	zap  *zap.Logger
}

// NewHub creates a hub. file and z may be nil.
func NewHub(ring *console.Ring, file FileSink, z *zap.Logger) *Hub {
	if z == nil {
		z = zap.NewNop()
	}
	return &Hub{ring: ring, file: file, zap: z}
}

// Ring returns the console ring the hub appends to
func (h *Hub) Ring() *console.Ring {
	return h.ring
}

// New returns a Logger whose lines carry prefix
func (h *Hub) New(prefix string) Logger {
	return &prefixLogger{
		hub:    h,
		prefix: prefix,
		zap:    h.zap.With(zap.String("prefix", prefix)),
	}
}

func (h *Hub) publish(prefix string, severity console.Severity, msg string) {
	if h.ring != nil {
		h.ring.Append(prefix, severity, msg)
	}
	if h.file != nil {
		if err := h.file.Write(console.Format(prefix, severity, msg)); err != nil {
			h.zap.Debug("log file write dropped", zap.Error(err))
		}
	}
}

type prefixLogger struct {
	hub    *Hub
	prefix string
	zap    *zap.Logger
}

func (l *prefixLogger) Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.hub.publish(l.prefix, console.Info, msg)
	l.zap.Info(msg)
}

func (l *prefixLogger) Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.hub.publish(l.prefix, console.Warning, msg)
	l.zap.Warn(msg)
}

func (l *prefixLogger) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.hub.publish(l.prefix, console.Error, msg)
	l.zap.Error(msg)
}

// Debug only reaches zap; the console and the file keep user facing lines.
func (l *prefixLogger) Debug(format string, args ...interface{}) {
	l.zap.Debug(fmt.Sprintf(format, args...))
}

// NewZap builds the process logger. Lines below warn go to stdout, the rest
// to stderr.
func NewZap(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	if development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewConsoleEncoder(encCfg)

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= lvl && l < zapcore.WarnLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= lvl && l >= zapcore.WarnLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), low),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), high),
	)

	opts := []zap.Option{}
	if development {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}
	return zap.New(core, opts...), nil
}

type nopLogger struct{}

func (nopLogger) Info(format string, args ...interface{})  {}
func (nopLogger) Warn(format string, args ...interface{})  {}
func (nopLogger) Error(format string, args ...interface{}) {}
func (nopLogger) Debug(format string, args ...interface{}) {}

// Nop returns a Logger that discards everything
func Nop() Logger {
	return nopLogger{}
}
