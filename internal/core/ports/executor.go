// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/toolcache/internal/core/domain"
)

// Executor defines the interface for executing task recipes.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the commands of plan inside workDir.
	//
	// The env parameter contains environment variables in "KEY=VALUE" format
	// appended to the process environment.
	//
	// It returns an error if any command fails.
	Execute(ctx context.Context, plan *domain.TaskPlan, workDir string, env []string, stdout, stderr io.Writer) error
}
