// Package logging builds the zap logger shared by every component.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field names used across the code base so log lines stay greppable.
const (
	FieldNoteID    = "noteId"
	FieldMessageID = "messageId"
	FieldAction    = "action"
	FieldBackend   = "backend"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldChord     = "chord"
	FieldCount     = "count"
	FieldDelay     = "delay"
	FieldRule      = "rule"
)

// Options controls logger construction.
type Options struct {
	// Level is parsed with zapcore.ParseLevel; empty means info.
	Level string
	// File receives log output; empty means stderr.
	File string
	// Production switches to the JSON encoder.
	Production bool
}

// New builds a logger from opts. NOTEDESK_DEBUG forces debug level.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = l
	}
	if os.Getenv("NOTEDESK_DEBUG") != "" {
		level = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	if opts.Production {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	writer := zapcore.Lock(os.Stderr)
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		writer = zapcore.AddSync(f)
	}

	core := zapcore.NewCore(encoder, writer, level)
	return zap.New(core, zap.AddCaller()), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
