package main

import (
	"cmp"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	sigreceipts "github.com/srozzo/go-signal-receipts"
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger logs JSON to stderr, or to a rotating file when lc.File is set.
// The closer must be called after the logger is synced. Zero rotation limits
// take the defaults; lc is expected to be validated.
func newLogger(lc sigreceipts.LogConfig, debug bool) (*zap.Logger, io.Closer, error) {
	level := zapcore.InfoLevel
	if lc.Level != "" {
		l, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, nil, err
		}
		level = l
	}
	if debug {
		level = zapcore.DebugLevel
	}

	var (
		ws     zapcore.WriteSyncer
		closer io.Closer = nopCloser{}
	)
	if lc.File != "" {
		lj := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    cmp.Or(lc.MaxSizeMB, defaultMaxSizeMB),
			MaxBackups: cmp.Or(lc.MaxBackups, defaultMaxBackups),
		}
		ws = zapcore.AddSync(lj)
		closer = lj
	} else {
		ws = zapcore.Lock(os.Stderr)
	}

	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(level))
	return zap.New(core).Named("sigwatch"), closer, nil
}

