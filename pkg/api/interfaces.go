// Package api provides the HTTP conversion and library service
package api

import (
	"context"

	"go.uber.org/zap"
)

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled
	StartServer(ctx context.Context, lib Library, config ServerConfig, log *zap.Logger) error
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// NewServerStarter creates a server starter
func NewServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, lib Library, config ServerConfig, log *zap.Logger) error {
	return StartServer(ctx, lib, config, log)
}
