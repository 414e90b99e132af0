package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/valinor-ai/navgate/internal/platform/database"
)

// Handler serves audit query endpoints.
type Handler struct {
	db    database.Querier
	store *Store
}

// NewHandler creates an audit query handler. db may be nil, in which case
// every query returns no events.
func NewHandler(db database.Querier) *Handler {
	return &Handler{db: db, store: NewStore()}
}

// HandleListEvents returns recorded audit events, newest first.
// GET /api/v1/audit/events?limit=50&action=access.denied&user_id=&path=&source=&after=&before=
func (h *Handler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListEventsParams{Limit: 50}

	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			params.Limit = n
		}
	}

	for key, dst := range map[string]**string{
		"action":  &params.Action,
		"user_id": &params.UserID,
		"path":    &params.Path,
		"source":  &params.Source,
	} {
		if v := q.Get(key); v != "" {
			*dst = &v
		}
	}

	for key, dst := range map[string]**time.Time{
		"after":  &params.After,
		"before": &params.Before,
	} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeAuditJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + key + " timestamp"})
			return
		}
		*dst = &t
	}

	if h.db == nil {
		writeAuditJSON(w, http.StatusOK, map[string]any{"events": []any{}, "count": 0})
		return
	}

	events, err := h.store.ListEvents(r.Context(), h.db, params)
	if err != nil {
		writeAuditJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}

	writeAuditJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func writeAuditJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
