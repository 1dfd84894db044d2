package utils

import (
	"cmp"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/cppla/topicbbs/config"
)

var (
	// Logger is the global structured logger
	Logger = zap.NewNop()
	// Sugar is a sugared logger for convenience
	Sugar = Logger.Sugar()
)

// rotation holds lumberjack limits; zero values fall back to 100 MB, 3 backups, 7 days.
type rotation struct {
	maxSizeMB, maxBackups, maxAgeDays int
	compress                          bool
}

// InitLogger replaces Logger with a JSON logger writing to stdout and, when LogPath is set,
// to a rotated file as well.
func InitLogger(cfg config.AppConfig) error {
	level := logLevel(cfg.LogLevel)
	enc := zapcore.NewJSONEncoder(encoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level)}

	if cfg.LogPath != "" {
		fileCore, err := rollingCore(cfg.LogPath, level, rotation{cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress})
		if err != nil {
			return err
		}
		cores = append(cores, fileCore)
	}

	opts := []zap.Option{zap.AddCaller()}
	if level == zapcore.DebugLevel {
		opts = append(opts, zap.Development())
	}
	Logger = zap.New(zapcore.NewTee(cores...), opts...).With(zap.String("service", "topicbbs"))
	Sugar = Logger.Sugar()
	return nil
}

// NewRollingFileLogger builds a JSON logger writing only to a rotated file, used for access logs.
func NewRollingFileLogger(path, level string, maxSizeMB, maxBackups, maxAgeDays int, compress bool) (*zap.Logger, error) {
	if path == "" {
		return nil, errors.New("log path is empty")
	}
	core, err := rollingCore(path, logLevel(level), rotation{maxSizeMB, maxBackups, maxAgeDays, compress})
	if err != nil {
		return nil, err
	}
	return zap.New(core), nil
}

func rollingCore(path string, level zapcore.LevelEnabler, r rotation) (zapcore.Core, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cmp.Or(r.maxSizeMB, 100),
		MaxBackups: cmp.Or(r.maxBackups, 3),
		MaxAge:     cmp.Or(r.maxAgeDays, 7),
		Compress:   r.compress,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(w), level), nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
	}
	cfg.EncodeDuration = zapcore.SecondsDurationEncoder
	return cfg
}

// logLevel parses a level name; empty or unknown names mean info.
func logLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
