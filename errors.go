package sequence

import (
	"errors"

	"github.com/xraph/sequence/control"
	"github.com/xraph/sequence/executor"
)

var (
	// Lifecycle errors.
	ErrRuntimeStopped = errors.New("sequence: runtime stopped")
	ErrNoExecutor     = errors.New("sequence: no executor configured")

	// Configuration errors.
	ErrInvalidConfig = errors.New("sequence: invalid config")

	// Re-exported from the layers that produce them.
	ErrLoopStopped = control.ErrStopped
	ErrPoolStopped = executor.ErrPoolStopped
)
