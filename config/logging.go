package config

import "go.uber.org/zap"

// setLogger builds the zap logger for the given environment. Unknown
// environments get the production logger.
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "local":
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return c.Build()
	case "development":
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		return c.Build()
	default:
		return zap.NewProduction()
	}
}
