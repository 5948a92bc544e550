package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Init builds the global logger for the given environment and installs it
// with zap.ReplaceGlobals, so call sites can use zap.L().
func Init(environment string) error {
	var (
		l   *zap.Logger
		err error
	)

	switch environment {
	case "production":
		l, err = zap.NewProduction()
	default:
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("zap.New -> %w", err)
	}

	zap.ReplaceGlobals(l)

	return nil
}
