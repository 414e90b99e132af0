package orgchart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valinor-ai/navgate/internal/orgchart"
)

func sampleChart() *orgchart.Chart {
	return &orgchart.Chart{
		Divisions: []orgchart.Division{
			{
				Key: "commercial",
				Departments: []orgchart.Department{
					{
						Key:  "purchasing",
						Head: orgchart.Role{ID: "3f1c9a52-0001", RoleKey: "PurchasingHead"},
						Employees: []orgchart.Role{
							{ID: "3f1c9a52-0002", RoleKey: "Buyer"},
							{ID: "3f1c9a52-0003"},
						},
					},
				},
			},
			{
				Key: "operations",
				Departments: []orgchart.Department{
					{Key: "warehouse", Head: orgchart.Role{ID: "7d2e-0001"}},
					{
						Key:       "hr",
						Head:      orgchart.Role{ID: "7d2e-0002"},
						Employees: []orgchart.Role{{ID: "7d2e-0003", RoleKey: "Recruiter"}},
					},
				},
			},
		},
	}
}

func TestChart_Validate(t *testing.T) {
	require.NoError(t, sampleChart().Validate())
}

func TestChart_Validate_DuplicateRole(t *testing.T) {
	c := sampleChart()
	c.Divisions[1].Departments[0].Employees = []orgchart.Role{{ID: "3f1c9a52-0002"}}

	err := c.Validate()
	assert.ErrorIs(t, err, orgchart.ErrDuplicateRole)
}

func TestChart_Validate_DuplicateDepartment(t *testing.T) {
	c := sampleChart()
	c.Divisions[1].Departments[1].Key = "warehouse"

	assert.ErrorIs(t, c.Validate(), orgchart.ErrDuplicateKey)
}

func TestChart_Validate_MissingHead(t *testing.T) {
	c := sampleChart()
	c.Divisions[0].Departments[0].Head = orgchart.Role{}

	assert.ErrorIs(t, c.Validate(), orgchart.ErrMissingHeadRoles)
}

func TestChart_Locate_Employee(t *testing.T) {
	p, ok := sampleChart().Locate("7d2e-0003")
	require.True(t, ok)
	assert.Equal(t, "operations", p.DivisionID)
	assert.Equal(t, "hr", p.DepartmentID)
	assert.False(t, p.IsHead)
}

func TestChart_Locate_Head(t *testing.T) {
	p, ok := sampleChart().Locate("3f1c9a52-0001")
	require.True(t, ok)
	assert.Equal(t, "commercial", p.DivisionID)
	assert.Equal(t, "purchasing", p.DepartmentID)
	assert.True(t, p.IsHead)
}

func TestChart_Locate_ByRoleKey(t *testing.T) {
	p, ok := sampleChart().Locate("Buyer")
	require.True(t, ok)
	assert.Equal(t, "3f1c9a52-0002", p.Role.ID)
}

func TestChart_Locate_NotFound(t *testing.T) {
	_, ok := sampleChart().Locate("SuperAdmin")
	assert.False(t, ok)

	_, ok = sampleChart().Locate("")
	assert.False(t, ok)

	var nilChart *orgchart.Chart
	_, ok = nilChart.Locate("7d2e-0001")
	assert.False(t, ok)
}

func TestChart_Roles(t *testing.T) {
	roles := sampleChart().Roles()
	require.Len(t, roles, 6)
	assert.Equal(t, "3f1c9a52-0001", roles[0].ID)
	assert.Equal(t, "7d2e-0003", roles[5].ID)
}
