package orgchart

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyRoleID      = errors.New("role id is required")
	ErrDuplicateRole    = errors.New("role id appears more than once")
	ErrDuplicateKey     = errors.New("duplicate division or department key")
	ErrEmptyKey         = errors.New("division and department keys are required")
	ErrMissingHeadRoles = errors.New("department head role is required")
)

// Role is a leaf of the chart: a department head or an employee position.
type Role struct {
	ID        string `json:"id" koanf:"id"`
	RoleKey   string `json:"roleKey,omitempty" koanf:"role_key"`
	RoleLabel string `json:"roleLabel,omitempty" koanf:"role_label"`
}

// Department has exactly one head role and zero or more employee roles.
type Department struct {
	Key       string `json:"key" koanf:"key"`
	Head      Role   `json:"departmentHead" koanf:"head"`
	Employees []Role `json:"employees" koanf:"employees"`
}

// Division groups departments.
type Division struct {
	Key         string       `json:"key" koanf:"key"`
	Departments []Department `json:"departments" koanf:"departments"`
}

// Chart is the role structure of the organisation. Slices keep the
// declaration order, which is also the lookup order.
type Chart struct {
	Divisions []Division `json:"divisions" koanf:"divisions"`
}

// Placement tells where a role sits in the chart.
type Placement struct {
	DivisionID   string
	DepartmentID string
	Role         Role
	IsHead       bool
}

// Validate checks that keys are present and unique per level and that no
// role id is shared between positions.
func (c *Chart) Validate() error {
	seenRoles := make(map[string]string)
	seenDivisions := make(map[string]bool, len(c.Divisions))

	for _, div := range c.Divisions {
		if div.Key == "" {
			return ErrEmptyKey
		}
		if seenDivisions[div.Key] {
			return fmt.Errorf("%w: division %q", ErrDuplicateKey, div.Key)
		}
		seenDivisions[div.Key] = true

		seenDepartments := make(map[string]bool, len(div.Departments))
		for _, dept := range div.Departments {
			if dept.Key == "" {
				return fmt.Errorf("%w: division %q", ErrEmptyKey, div.Key)
			}
			if seenDepartments[dept.Key] {
				return fmt.Errorf("%w: department %s.%s", ErrDuplicateKey, div.Key, dept.Key)
			}
			seenDepartments[dept.Key] = true

			where := div.Key + "." + dept.Key
			if dept.Head.ID == "" {
				return fmt.Errorf("%w: %s", ErrMissingHeadRoles, where)
			}
			for _, r := range append([]Role{dept.Head}, dept.Employees...) {
				if r.ID == "" {
					return fmt.Errorf("%w: %s", ErrEmptyRoleID, where)
				}
				if prev, ok := seenRoles[r.ID]; ok {
					return fmt.Errorf("%w: %q in %s and %s", ErrDuplicateRole, r.ID, prev, where)
				}
				seenRoles[r.ID] = where
			}
		}
	}
	return nil
}

// Locate finds the first position whose id or role key equals identifier.
// Divisions and departments are walked in declaration order and the head is
// checked before the employees.
func (c *Chart) Locate(identifier string) (Placement, bool) {
	if c == nil || identifier == "" {
		return Placement{}, false
	}
	for _, div := range c.Divisions {
		for _, dept := range div.Departments {
			if dept.Head.matches(identifier) {
				return Placement{DivisionID: div.Key, DepartmentID: dept.Key, Role: dept.Head, IsHead: true}, true
			}
			for _, emp := range dept.Employees {
				if emp.matches(identifier) {
					return Placement{DivisionID: div.Key, DepartmentID: dept.Key, Role: emp}, true
				}
			}
		}
	}
	return Placement{}, false
}

// Roles returns every role in lookup order.
func (c *Chart) Roles() []Role {
	if c == nil {
		return nil
	}
	var roles []Role
	for _, div := range c.Divisions {
		for _, dept := range div.Departments {
			roles = append(roles, dept.Head)
			roles = append(roles, dept.Employees...)
		}
	}
	return roles
}

func (r Role) matches(identifier string) bool {
	return r.ID == identifier || (r.RoleKey != "" && r.RoleKey == identifier)
}
