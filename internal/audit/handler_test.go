package audit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleListEvents_NilPool(t *testing.T) {
	h := NewHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/events", nil)
	w := httptest.NewRecorder()

	h.HandleListEvents(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
	assert.Contains(t, w.Body.String(), `"events":[]`)
}

func TestHandleListEvents_ComposedFilters(t *testing.T) {
	h := NewHandler(nil)
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/audit/events?action=access.denied&user_id=u1&source=api&limit=25&after=2026-02-25T00:00:00Z",
		nil,
	)
	w := httptest.NewRecorder()

	h.HandleListEvents(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestHandleListEvents_InvalidTimestamp(t *testing.T) {
	for _, key := range []string{"after", "before"} {
		t.Run(key, func(t *testing.T) {
			h := NewHandler(nil)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/events?"+key+"=yesterday", nil)
			w := httptest.NewRecorder()

			h.HandleListEvents(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid "+key+" timestamp")
		})
	}
}
