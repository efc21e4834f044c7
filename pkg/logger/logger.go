package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "LMPTOOL_LOG_LEVEL"

// New builds a console logger writing to w at the given level. An empty level
// falls back to $LMPTOOL_LOG_LEVEL, then to info.
func New(level string, w io.Writer) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	levelStr := strings.TrimSpace(level)
	if levelStr == "" {
		levelStr = strings.TrimSpace(os.Getenv(EnvLevel))
	}
	if levelStr != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(levelStr))); err != nil {
			return nil, err
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006/01/02 15:04:05"))
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		lvl,
	)

	return zap.New(core, zap.AddCaller()), nil
}
