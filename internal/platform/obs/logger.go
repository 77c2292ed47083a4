package obs

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the process logger. env "development" selects the
// human-readable development encoder; anything else gets the JSON production one.
func NewLogger(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger env=%q: %w", env, err)
	}
	return logger, nil
}
