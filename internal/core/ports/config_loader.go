package ports

import "go.trai.ch/toolcache/internal/core/domain"

// ConfigLoader defines the interface for loading the toolcache configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load discovers and reads the configuration starting at cwd.
	// It returns the default configuration rooted at cwd when no file is found.
	Load(cwd string) (*domain.Config, error)
}
