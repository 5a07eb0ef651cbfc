package httpapi

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/events"
	"jobscout-engine/internal/store"
)

// RunStatus is the trigger endpoint's view of the current/last run.
type RunStatus struct {
	Running     bool               `json:"running"`
	LastRunAt   string             `json:"lastRunAt,omitempty"`
	LastError   string             `json:"lastError,omitempty"`
	LastSummary *domain.RunSummary `json:"lastSummary,omitempty"`
}

type Deps struct {
	Store *store.Store
	Hub   *events.Hub
	Log   *zap.Logger

	// RunStatus holds an httpapi.RunStatus snapshot.
	RunStatus *atomic.Value

	// TriggerRun starts a discovery run; injected so handlers stay
	// ignorant of the dispatcher wiring.
	TriggerRun func(ctx context.Context) (*domain.RunSummary, error)
}
