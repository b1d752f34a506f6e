package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New monta o logger do processo e o instala como global do zap; os pacotes logam via
// zap.S() sem receber logger.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(env, "development") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(l)
	return l, nil
}
