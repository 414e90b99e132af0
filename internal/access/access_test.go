package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valinor-ai/navgate/internal/access"
	"github.com/valinor-ai/navgate/internal/orgchart"
	"github.com/valinor-ai/navgate/internal/pathmap"
	"github.com/valinor-ai/navgate/internal/permissions"
	"github.com/valinor-ai/navgate/internal/rolemapper"
)

const (
	headID  = "4c1f7e2a-head"
	clerkID = "4c1f7e2a-clerk"
	auditID = "4c1f7e2a-audit"
)

func fixtures(t *testing.T) (*access.Evaluator, *rolemapper.Mapper) {
	t.Helper()
	chart := &orgchart.Chart{
		Divisions: []orgchart.Division{{
			Key: "commercial",
			Departments: []orgchart.Department{{
				Key:  "purchasing",
				Head: orgchart.Role{ID: headID, RoleKey: "PurchasingHead"},
				Employees: []orgchart.Role{
					{ID: clerkID, RoleKey: "Clerk"},
					{ID: auditID},
				},
			}},
		}},
	}
	require.NoError(t, chart.Validate())

	paths := pathmap.MustNew(
		pathmap.Entry{Template: "/dashboard/management/products", ViewRoles: []string{headID, clerkID}, ActionRoles: []string{headID}},
		pathmap.Entry{Template: "/dashboard/management/products/[id]", ViewRoles: []string{headID}, ActionRoles: []string{headID, auditID}},
		pathmap.Entry{Template: "/dashboard/management/brands", ViewRoles: []string{"Clerk"}},
	)
	return access.NewEvaluator(permissions.NewCache(paths)), rolemapper.New(chart)
}

func TestSuperAdminBypass(t *testing.T) {
	eval, mapper := fixtures(t)
	user := mapper.MapUserRole(map[string]any{"role": map[string]any{"roleKey": "SuperAdmin"}})

	assert.True(t, eval.CanView(user, "/"))
	assert.True(t, eval.CanAct(user, "/"))
	assert.True(t, eval.CanAct(user, "/dashboard/management/products/9"))
	assert.True(t, eval.CanView(user, "/no/such/page"))
	assert.Equal(t, access.MatchedSuperAdmin, eval.Evaluate(user, "/x", access.Act).MatchedBy)
}

func TestSuperAdminBypass_CaseInsensitive(t *testing.T) {
	eval, mapper := fixtures(t)
	user := mapper.MapUserRole(map[string]any{"role": "superadmin"})

	assert.True(t, eval.IsSuperAdmin(user))
	assert.True(t, eval.CanAct(user, "/dashboard/management/brands"))
}

func TestGenericAdmin_ViewOnlyRoot(t *testing.T) {
	eval, mapper := fixtures(t)
	user := mapper.MapUserRole(map[string]any{"role": "admin"})

	assert.True(t, eval.CanView(user, "/"))
	assert.False(t, eval.CanAct(user, "/"))
}

func TestGenericAdmin_BlanketView(t *testing.T) {
	eval, mapper := fixtures(t)
	user := mapper.MapUserRole(map[string]any{"role": "admin"})

	d := eval.Evaluate(user, "/dashboard/management/products/3", access.View)
	assert.True(t, d.Allowed)
	assert.Equal(t, access.MatchedBlanket, d.MatchedBy)

	assert.False(t, eval.CanAct(user, "/dashboard/management/products/3"))
	assert.False(t, eval.CanView(user, "/unknown"))
}

func TestRoleIDMembership(t *testing.T) {
	eval, mapper := fixtures(t)
	clerk := mapper.MapUserRole(map[string]any{"role": clerkID})

	assert.True(t, eval.CanView(clerk, "/dashboard/management/products"))
	assert.False(t, eval.CanAct(clerk, "/dashboard/management/products"))
	assert.False(t, eval.CanView(clerk, "/dashboard/management/products/12"))

	head := mapper.MapUserRole(map[string]any{"role": map[string]any{"id": headID}})
	d := eval.Evaluate(head, "/dashboard/management/products/12", access.Act)
	assert.True(t, d.Allowed)
	assert.Equal(t, "/dashboard/management/products/[id]", d.Template)
	assert.Equal(t, access.MatchedRoleID, d.MatchedBy)
}

func TestRoleKeyMembership_ToleratesGUIDMismatch(t *testing.T) {
	eval, mapper := fixtures(t)
	user := mapper.MapUserRole(map[string]any{"role": map[string]any{"id": "stale-guid", "roleKey": "Clerk"}})

	d := eval.Evaluate(user, "/dashboard/management/brands", access.View)
	assert.True(t, d.Allowed)
	assert.Equal(t, access.MatchedRoleKey, d.MatchedBy)
}

func TestRoleIDCheckedBeforeRoleKey(t *testing.T) {
	eval, mapper := fixtures(t)
	user := mapper.MapUserRole(map[string]any{"role": map[string]any{"id": clerkID, "roleKey": "Clerk"}})

	d := eval.Evaluate(user, "/dashboard/management/products", access.View)
	assert.True(t, d.Allowed)
	assert.Equal(t, access.MatchedRoleID, d.MatchedBy)
}

func TestActWithoutView(t *testing.T) {
	eval, mapper := fixtures(t)
	user := mapper.MapUserRole(map[string]any{"role": auditID})

	assert.False(t, eval.CanView(user, "/dashboard/management/products/5"))
	assert.True(t, eval.CanAct(user, "/dashboard/management/products/5"))
}

func TestUnmatchedPathFailsClosed(t *testing.T) {
	eval, mapper := fixtures(t)
	head := mapper.MapUserRole(map[string]any{"role": headID})

	assert.False(t, eval.CanView(head, "/dashboard/settings"))
	assert.False(t, eval.CanAct(head, "/dashboard/settings"))
	assert.Contains(t, eval.Evaluate(head, "/dashboard/settings", access.View).Reason, "no template")
}

func TestNilUser(t *testing.T) {
	eval, _ := fixtures(t)

	assert.False(t, eval.CanView(nil, "/"))
	assert.False(t, eval.CanAct(nil, "/"))
	assert.False(t, eval.CanView(nil, "/dashboard/management/products"))
}

func TestUserWithoutRole(t *testing.T) {
	eval, mapper := fixtures(t)
	user := mapper.MapUserRole(map[string]any{"email": "x@example.com"})

	assert.True(t, eval.CanView(user, "/"))
	assert.False(t, eval.CanAct(user, "/"))
	assert.False(t, eval.CanView(user, "/dashboard/management/products"))
}

func TestCustomKeys(t *testing.T) {
	_, mapper := fixtures(t)
	paths := pathmap.MustNew(pathmap.Entry{Template: "/dashboard/employees"})
	eval := access.NewEvaluator(permissions.NewCache(paths),
		access.WithSuperAdminKeys("Root"),
		access.WithBlanketViewerKeys(),
	)

	root := mapper.MapUserRole(map[string]any{"role": "Root"})
	admin := mapper.MapUserRole(map[string]any{"role": "admin"})
	superAdmin := mapper.MapUserRole(map[string]any{"role": "SuperAdmin"})

	assert.True(t, eval.CanAct(root, "/dashboard/employees"))
	assert.False(t, eval.CanView(admin, "/dashboard/employees"))
	assert.False(t, eval.CanAct(superAdmin, "/dashboard/employees"))
}

func TestNilCache(t *testing.T) {
	_, mapper := fixtures(t)
	eval := access.NewEvaluator(nil)
	user := mapper.MapUserRole(map[string]any{"role": headID})

	assert.True(t, eval.CanView(user, "/"))
	assert.False(t, eval.CanView(user, "/dashboard/management/products"))
}

func TestReloadIsObserved(t *testing.T) {
	_, mapper := fixtures(t)
	cache := permissions.NewCache(pathmap.MustNew(pathmap.Entry{Template: "/dashboard/brands"}))
	eval := access.NewEvaluator(cache)
	head := mapper.MapUserRole(map[string]any{"role": headID})

	assert.False(t, eval.CanView(head, "/dashboard/brands"))

	cache.SetPaths(pathmap.MustNew(pathmap.Entry{Template: "/dashboard/brands", ViewRoles: []string{headID}}))
	assert.True(t, eval.CanView(head, "/dashboard/brands"))
}
