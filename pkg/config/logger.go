package config

import "go.uber.org/zap"

// NewLogger builds a console logger for development and a JSON logger otherwise
func NewLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
