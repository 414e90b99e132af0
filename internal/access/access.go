package access

import (
	"log/slog"
	"strings"

	"github.com/valinor-ai/navgate/internal/pathmap"
	"github.com/valinor-ai/navgate/internal/permissions"
	"github.com/valinor-ai/navgate/internal/platform/metrics"
	"github.com/valinor-ai/navgate/internal/rolemapper"
)

// Kind is the permission being checked.
type Kind string

const (
	View Kind = "view"
	Act  Kind = "act"
)

// Values for Decision.MatchedBy.
const (
	MatchedSuperAdmin = "super_admin"
	MatchedRoot       = "root"
	MatchedBlanket    = "blanket_viewer"
	MatchedRoleID     = "role_id"
	MatchedRoleKey    = "role_key"
)

// DefaultSuperAdminKeys and DefaultBlanketViewerKeys are used when the
// evaluator is built without explicit keys.
var (
	DefaultSuperAdminKeys    = []string{"SuperAdmin"}
	DefaultBlanketViewerKeys = []string{"admin"}
)

// Decision is the outcome of a path access check.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	Template  string `json:"template,omitempty"`
	MatchedBy string `json:"matchedBy,omitempty"`
}

// EvaluatorOption configures the Evaluator.
type EvaluatorOption func(*Evaluator)

// WithSuperAdminKeys sets the role keys that bypass every check.
func WithSuperAdminKeys(keys ...string) EvaluatorOption {
	return func(e *Evaluator) {
		e.superAdmin = keys
	}
}

// WithBlanketViewerKeys sets the role keys that may view every known path
// but act on none by virtue of the key alone.
func WithBlanketViewerKeys(keys ...string) EvaluatorOption {
	return func(e *Evaluator) {
		e.blanketViewers = keys
	}
}

// Evaluator answers view/act questions for resolved users.
type Evaluator struct {
	cache          *permissions.Cache
	superAdmin     []string
	blanketViewers []string
}

func NewEvaluator(cache *permissions.Cache, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		cache:          cache,
		superAdmin:     DefaultSuperAdminKeys,
		blanketViewers: DefaultBlanketViewerKeys,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CanView reports whether user may navigate to path.
func (e *Evaluator) CanView(user *rolemapper.ResolvedUser, path string) bool {
	return e.Evaluate(user, path, View).Allowed
}

// CanAct reports whether user may perform mutating actions on path. It does
// not imply CanView.
func (e *Evaluator) CanAct(user *rolemapper.ResolvedUser, path string) bool {
	return e.Evaluate(user, path, Act).Allowed
}

// IsSuperAdmin reports whether the user carries a super-admin key, checked
// against the role key first and the role id second.
func (e *Evaluator) IsSuperAdmin(user *rolemapper.ResolvedUser) bool {
	if user == nil {
		return false
	}
	return containsFold(e.superAdmin, user.RoleKey) || containsFold(e.superAdmin, user.RoleID)
}

// Evaluate checks kind on path. The order is fixed: missing user, super-admin
// bypass, root path (view only), template match, blanket viewer (view only),
// role id membership, role key membership. Anything else is denied.
func (e *Evaluator) Evaluate(user *rolemapper.ResolvedUser, path string, kind Kind) *Decision {
	d := e.evaluate(user, path, kind)
	metrics.RecordDecision(string(kind), d.Allowed)
	if !d.Allowed {
		slog.Debug("path access denied", "kind", kind, "path", path, "reason", d.Reason)
	}
	return d
}

func (e *Evaluator) evaluate(user *rolemapper.ResolvedUser, path string, kind Kind) *Decision {
	if user == nil {
		return &Decision{Reason: "no user"}
	}
	if e.IsSuperAdmin(user) {
		return &Decision{Allowed: true, MatchedBy: MatchedSuperAdmin}
	}

	path = pathmap.Normalize(path)
	if path == "/" && kind == View {
		return &Decision{Allowed: true, Template: "/", MatchedBy: MatchedRoot}
	}

	if e.cache == nil {
		return &Decision{Reason: "no permission maps"}
	}
	paths, maps := e.cache.Snapshot()
	match, ok := paths.Match(path)
	if !ok {
		return &Decision{Reason: "no template matches " + path}
	}

	if kind == View && (containsFold(e.blanketViewers, user.RoleKey) || containsFold(e.blanketViewers, user.RoleID)) {
		return &Decision{Allowed: true, Template: match.Template, MatchedBy: MatchedBlanket}
	}

	roles := maps.ViewRoles(match.Template)
	if kind == Act {
		roles = maps.ActionRoles(match.Template)
	}

	switch {
	case user.RoleID != "" && roles.Has(user.RoleID):
		return &Decision{Allowed: true, Template: match.Template, MatchedBy: MatchedRoleID}
	case user.RoleKey != "" && roles.Has(user.RoleKey):
		return &Decision{Allowed: true, Template: match.Template, MatchedBy: MatchedRoleKey}
	}

	return &Decision{
		Template: match.Template,
		Reason:   "role has no " + string(kind) + " permission on " + match.Template,
	}
}

func containsFold(keys []string, v string) bool {
	if v == "" {
		return false
	}
	for _, k := range keys {
		if strings.EqualFold(k, v) {
			return true
		}
	}
	return false
}
