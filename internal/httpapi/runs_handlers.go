package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/events"
	"jobscout-engine/internal/store"
)

type RunsHandler struct {
	Store      *store.Store
	Hub        *events.Hub
	Log        *zap.Logger
	RunStatus  *atomic.Value // httpapi.RunStatus
	TriggerRun func(ctx context.Context) (*domain.RunSummary, error)
}

func (h RunsHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.RunStatus.Load().(RunStatus)
	writeJSON(w, st)
}

func (h RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "limit must be an integer")
			return
		}
		limit = n
	}
	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, runs)
}

// Trigger kicks off a discovery run in the background; the caller polls
// /runs/status or listens on /events for the result.
func (h RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	st := h.RunStatus.Load().(RunStatus)
	if st.Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	h.RunStatus.Store(RunStatus{
		Running:   true,
		LastRunAt: time.Now().Format(time.RFC3339),
	})
	h.Hub.Publish(events.Make(events.TypeRunStarted, nil))

	go func() {
		sum, err := h.TriggerRun(context.Background())
		next := RunStatus{LastRunAt: time.Now().Format(time.RFC3339)}
		if err != nil {
			next.LastError = err.Error()
			h.Log.Error("run failed", zap.Error(err))
		} else {
			next.LastSummary = sum
		}
		h.RunStatus.Store(next)
		h.Hub.Publish(events.Make(events.TypeRunFinished, next))
	}()

	writeJSON(w, map[string]any{"ok": true})
}
