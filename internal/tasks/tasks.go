// package tasks implements content download and asset replacement operations.
//
// The core abstraction is SyncEngine, which orchestrates project content
// exports, bulk downloads, and asset swaps. Operations emit progress updates
// via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
)

// SyncEngine performs long-running operations against an authenticated
// platform session. All methods accept a context and an optional progress
// channel; a nil channel disables progress reporting.
type SyncEngine struct {
	session *platform.Session
	logger  *log.Logger
}

// NewSyncEngine creates a SyncEngine bound to the given session.
// A nil logger discards output.
func NewSyncEngine(session *platform.Session, logger *log.Logger) *SyncEngine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &SyncEngine{
		session: session,
		logger:  logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
