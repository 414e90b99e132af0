package access

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/valinor-ai/navgate/internal/audit"
	"github.com/valinor-ai/navgate/internal/auth"
	"github.com/valinor-ai/navgate/internal/catalog"
	"github.com/valinor-ai/navgate/internal/pathmap"
	"github.com/valinor-ai/navgate/internal/permissions"
	"github.com/valinor-ai/navgate/internal/platform/middleware"
	"github.com/valinor-ai/navgate/internal/rolemapper"
)

const maxBodyBytes = 1 << 20

// Reloader swaps in a freshly loaded catalog.
type Reloader interface {
	Reload(ctx context.Context, source string) (*catalog.Catalog, error)
}

// Handler serves the role resolution and path access endpoints.
type Handler struct {
	eval     *Evaluator
	mapper   *rolemapper.Mapper
	cache    *permissions.Cache
	reloader Reloader
	audit    audit.Logger
}

func NewHandler(eval *Evaluator, mapper *rolemapper.Mapper, cache *permissions.Cache, reloader Reloader, auditLog audit.Logger) *Handler {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Handler{eval: eval, mapper: mapper, cache: cache, reloader: reloader, audit: auditLog}
}

// RegisterRoutes mounts the endpoints on mux. Inspection and reload routes
// are guarded by view and act access on adminPath respectively.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, adminPath string, opts ...MiddlewareOption) {
	inspect := RequirePath(h.eval, h.mapper, View, adminPath, opts...)
	manage := RequirePath(h.eval, h.mapper, Act, adminPath, opts...)

	mux.HandleFunc("GET /api/v1/me", h.HandleMe)
	mux.HandleFunc("GET /api/v1/me/access", h.HandleMyAccess)
	mux.Handle("POST /api/v1/users/resolve", inspect(http.HandlerFunc(h.HandleResolveUser)))
	mux.Handle("POST /api/v1/access/check", inspect(http.HandlerFunc(h.HandleCheck)))
	mux.Handle("GET /api/v1/permissions/maps", inspect(http.HandlerFunc(h.HandleMaps)))
	mux.Handle("GET /api/v1/permissions/roles/{role}/paths", inspect(http.HandlerFunc(h.HandleRolePaths)))
	mux.Handle("POST /api/v1/permissions/reload", manage(http.HandlerFunc(h.HandleReload)))
}

// accessReport is the answer to "what may this user do on this path".
type accessReport struct {
	Path     string                   `json:"path"`
	Template string                   `json:"template,omitempty"`
	CanView  bool                     `json:"canView"`
	CanAct   bool                     `json:"canAct"`
	View     *Decision                `json:"view"`
	Act      *Decision                `json:"act"`
	User     *rolemapper.ResolvedUser `json:"user,omitempty"`
}

func (h *Handler) report(user *rolemapper.ResolvedUser, path string) accessReport {
	view := h.eval.Evaluate(user, path, View)
	act := h.eval.Evaluate(user, path, Act)

	rep := accessReport{
		Path:    pathmap.Normalize(path),
		CanView: view.Allowed,
		CanAct:  act.Allowed,
		View:    view,
		Act:     act,
		User:    user,
	}
	rep.Template = view.Template
	if rep.Template == "" {
		rep.Template = act.Template
	}
	return rep
}

// HandleMe returns the caller's resolved user.
// GET /api/v1/me
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	writeJSON(w, http.StatusOK, h.mapper.MapUserRole(identity.User))
}

// HandleMyAccess reports the caller's view and act rights on a path.
// GET /api/v1/me/access?path=/dashboard/management/products/42
func (h *Handler) HandleMyAccess(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "path is required"})
		return
	}
	writeJSON(w, http.StatusOK, h.report(h.mapper.MapUserRole(identity.User), path))
}

// HandleResolveUser maps a raw user record onto the org chart.
// POST /api/v1/users/resolve
func (h *Handler) HandleResolveUser(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body failed"})
		return
	}
	user, err := h.mapper.MapUserJSON(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleCheck evaluates an arbitrary user against a path.
// POST /api/v1/access/check {"user": {...}, "path": "/dashboard"}
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body failed"})
		return
	}
	if !gjson.ValidBytes(body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	path := gjson.GetBytes(body, "path")
	if path.Type != gjson.String || path.Str == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "path is required"})
		return
	}

	var user *rolemapper.ResolvedUser
	if raw := gjson.GetBytes(body, "user"); raw.Exists() && raw.Type != gjson.Null {
		user, err = h.mapper.MapUserJSON([]byte(raw.Raw))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusOK, h.report(user, path.Str))
}

// HandleMaps returns the current permission maps.
// GET /api/v1/permissions/maps
func (h *Handler) HandleMaps(w http.ResponseWriter, r *http.Request) {
	h.logInspection(r, "")
	writeJSON(w, http.StatusOK, map[string]any{
		"epoch": h.cache.Epoch(),
		"maps":  h.cache.Get(),
	})
}

// HandleRolePaths lists the templates a role is named on.
// GET /api/v1/permissions/roles/{role}/paths
func (h *Handler) HandleRolePaths(w http.ResponseWriter, r *http.Request) {
	role := r.PathValue("role")
	h.logInspection(r, role)

	paths := h.cache.Get().PathsFor(role).Sorted()
	writeJSON(w, http.StatusOK, map[string]any{
		"role":  role,
		"paths": paths,
	})
}

// HandleReload reloads the catalog from its source.
// POST /api/v1/permissions/reload
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "reload not available"})
		return
	}
	c, err := h.reloader.Reload(r.Context(), "api")
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrNoSource) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]string{"error": "reload failed", "reason": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"templates": c.Paths.Len(),
		"roles":     len(c.Chart.Roles()),
		"epoch":     h.cache.Epoch(),
	})
}

func (h *Handler) logInspection(r *http.Request, role string) {
	var userID string
	if identity := auth.GetIdentity(r.Context()); identity != nil {
		userID = identity.UserID
	}
	meta := map[string]any{audit.MetadataRequestID: middleware.GetRequestID(r.Context())}
	if role != "" {
		meta["role"] = role
	}
	h.audit.Log(r.Context(), audit.Event{
		UserID:   userID,
		Action:   audit.ActionPermissionsInspected,
		Path:     r.URL.Path,
		Metadata: meta,
		Source:   "api",
	})
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}
