package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotated log file created inside the log directory.
const FileName = "pagewatch.log"

// NewLogger writes JSON logs to a rotated file under logDir and mirrors them
// to stderr.
func NewLogger(logDir string) (*zap.Logger, error) {
	return newLogger(logDir, zapcore.Lock(os.Stderr))
}

func newLogger(logDir string, console zapcore.WriteSyncer) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(cfg)

	core := zapcore.NewTee(
		zapcore.NewCore(enc, file, zap.InfoLevel),
		zapcore.NewCore(enc.Clone(), console, zap.InfoLevel),
	)
	return zap.New(core, zap.AddCaller()).With(zap.String("service", "pagewatch")), nil
}
