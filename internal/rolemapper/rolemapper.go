package rolemapper

import (
	"encoding/json"
	"errors"
	"maps"
	"sync/atomic"

	"github.com/tidwall/gjson"
	"github.com/valinor-ai/navgate/internal/orgchart"
)

var ErrNotObject = errors.New("user record must be a JSON object")

// ResolvedUser is a backend user record enriched with its place in the org
// chart. DivisionID and DepartmentID are nil when the role is not placed,
// which is not an error.
type ResolvedUser struct {
	Fields       map[string]any
	RoleID       string
	RoleKey      string
	RoleLabel    string
	DivisionID   *string
	DepartmentID *string
}

// Placed reports whether the role was found in the org chart.
func (u *ResolvedUser) Placed() bool {
	return u != nil && u.DivisionID != nil
}

// MarshalJSON emits the original fields plus roleId, roleKey, divisionId and
// departmentId. An empty RoleID is omitted.
func (u *ResolvedUser) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Fields)+4)
	maps.Copy(out, u.Fields)
	if u.RoleID != "" {
		out["roleId"] = u.RoleID
	} else {
		delete(out, "roleId")
	}
	if u.RoleKey != "" {
		out["roleKey"] = u.RoleKey
	}
	out["divisionId"] = u.DivisionID
	out["departmentId"] = u.DepartmentID
	return json.Marshal(out)
}

// Mapper resolves backend user records against the current org chart.
type Mapper struct {
	chart atomic.Pointer[orgchart.Chart]
}

func New(chart *orgchart.Chart) *Mapper {
	m := &Mapper{}
	m.chart.Store(chart)
	return m
}

// SetChart swaps the chart used for later lookups.
func (m *Mapper) SetChart(chart *orgchart.Chart) {
	m.chart.Store(chart)
}

// Chart returns the chart currently in use.
func (m *Mapper) Chart() *orgchart.Chart {
	return m.chart.Load()
}

// MapUserRole extracts the role identifier from user["role"] and locates it
// in the chart. The role may be a bare string or an object carrying id,
// roleKey and roleLabel; role.id is preferred over role.roleKey. The input
// map is copied, never modified.
func (m *Mapper) MapUserRole(user map[string]any) *ResolvedUser {
	out := &ResolvedUser{Fields: maps.Clone(user)}
	if out.Fields == nil {
		out.Fields = map[string]any{}
	}

	switch role := user["role"].(type) {
	case string:
		out.RoleID = role
		out.RoleKey = role
	case map[string]any:
		id, _ := role["id"].(string)
		key, _ := role["roleKey"].(string)
		out.RoleLabel, _ = role["roleLabel"].(string)
		out.RoleKey = key
		out.RoleID = id
		if out.RoleID == "" {
			out.RoleID = key
		}
	}

	chart := m.chart.Load()
	placement, ok := chart.Locate(out.RoleID)
	if !ok && out.RoleKey != "" && out.RoleKey != out.RoleID {
		placement, ok = chart.Locate(out.RoleKey)
	}
	if ok {
		div, dept := placement.DivisionID, placement.DepartmentID
		out.DivisionID = &div
		out.DepartmentID = &dept
		if out.RoleLabel == "" {
			out.RoleLabel = placement.Role.RoleLabel
		}
	}
	return out
}

// MapUserJSON parses a raw user record and maps it.
func (m *Mapper) MapUserJSON(data []byte) (*ResolvedUser, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrNotObject
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, ErrNotObject
	}
	fields, _ := res.Value().(map[string]any)
	return m.MapUserRole(fields), nil
}
