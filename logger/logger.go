// logger/logger.go
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	zap *zap.Logger
}

type Config struct {
	Level       string
	Format      string
	ServiceName string
}

func New(cfg Config) *Logger {
	if cfg.Level == "" {
		cfg.Level = "info"
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), parseLevel(cfg.Level))
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if cfg.ServiceName != "" {
		z = z.With(zap.String("service", cfg.ServiceName))
	}
	return &Logger{zap: z}
}

// Nop discards everything. Used by tests and as the zero-config fallback.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.zap.Debug(msg, fields(kv)...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.zap.Info(msg, fields(kv)...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.zap.Warn(msg, fields(kv)...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.zap.Error(msg, fields(kv)...) }
func (l *Logger) Fatal(msg string, kv ...interface{}) { l.zap.Fatal(msg, fields(kv)...) }

func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{zap: l.zap.With(fields(kv)...)}
}

func (l *Logger) Sync() {
	_ = l.zap.Sync()
}

// fields turns alternating key/value pairs into zap fields. A trailing key without value is dropped.
func fields(kv []interface{}) []zap.Field {
	if len(kv) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kv[i])
		}
		if err, isErr := kv[i+1].(error); isErr {
			out = append(out, zap.NamedError(key, err))
			continue
		}
		out = append(out, zap.Any(key, kv[i+1]))
	}
	return out
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
