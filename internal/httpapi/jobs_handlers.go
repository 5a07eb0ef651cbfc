package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/events"
	"jobscout-engine/internal/store"
)

type JobsHandler struct {
	Store *store.Store
	Hub   *events.Hub
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := store.QueryFilter{
		Source: q.Get("source"),
		Status: domain.ApplicationStatus(q.Get("status")),
		Window: q.Get("window"),
		Sort:   q.Get("sort"),
	}
	if v := q.Get("minScore"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "minScore must be a number")
			return
		}
		f.MinScore = score
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "limit must be an integer")
			return
		}
		f.Limit = n
	}
	if f.Status != "" && !f.Status.Valid() {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "unknown status "+string(f.Status))
		return
	}

	jobs, err := h.Store.ListJobs(r.Context(), f)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, jobs)
}

type statusUpdate struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateStatusByPath expects /jobs/{id}/status.
func (h JobsHandler) UpdateStatusByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/jobs/")
	idStr, ok := strings.CutSuffix(rest, "/status")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid id")
		return
	}

	var upd statusUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	status := domain.ApplicationStatus(upd.Status)
	if !status.Valid() {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "unknown status "+upd.Status)
		return
	}

	if err := h.Store.SetApplicationStatus(r.Context(), id, status, upd.Notes); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	h.Hub.Publish(events.Make(events.TypeJobStatusChanged, map[string]any{
		"id": id, "status": string(status),
	}))
	writeJSON(w, map[string]any{"ok": true, "id": id, "status": string(status)})
}

type StatsHandler struct {
	Store *store.Store
}

func (h StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.Store.Stats(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, st)
}
