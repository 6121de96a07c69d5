// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/toolcache/internal/adapters/cas"
	_ "go.trai.ch/toolcache/internal/adapters/config"
	_ "go.trai.ch/toolcache/internal/adapters/environment"
	_ "go.trai.ch/toolcache/internal/adapters/fs"
	_ "go.trai.ch/toolcache/internal/adapters/git"
	_ "go.trai.ch/toolcache/internal/adapters/logger"
	_ "go.trai.ch/toolcache/internal/adapters/shell"
	_ "go.trai.ch/toolcache/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/toolcache/internal/app"
	_ "go.trai.ch/toolcache/internal/engine/resolver"
	_ "go.trai.ch/toolcache/internal/engine/taskcache"
)
