package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/valinor-ai/navgate/internal/orgchart"
	"github.com/valinor-ai/navgate/internal/pathmap"
	"github.com/valinor-ai/navgate/internal/platform/database"
)

// Grant kinds stored in path_grants.kind.
const (
	GrantView = "view"
	GrantAct  = "act"
)

// Schema creates the catalog tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS org_roles (
	division_key   TEXT    NOT NULL,
	department_key TEXT    NOT NULL,
	role_id        TEXT    NOT NULL PRIMARY KEY,
	role_key       TEXT    NOT NULL DEFAULT '',
	role_label     TEXT    NOT NULL DEFAULT '',
	is_head        BOOLEAN NOT NULL DEFAULT FALSE,
	position       INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS org_roles_head_idx
	ON org_roles (division_key, department_key) WHERE is_head;

CREATE TABLE IF NOT EXISTS path_templates (
	template TEXT    NOT NULL PRIMARY KEY,
	position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS path_grants (
	template TEXT    NOT NULL REFERENCES path_templates (template) ON DELETE CASCADE,
	kind     TEXT    NOT NULL CHECK (kind IN ('view', 'act')),
	role     TEXT    NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (template, kind, role)
);
`

// PostgresSource reads the catalog from the org_roles, path_templates and
// path_grants tables inside one read-only snapshot.
type PostgresSource struct {
	DB database.TxBeginner
}

func NewPostgresSource(db database.TxBeginner) *PostgresSource {
	return &PostgresSource{DB: db}
}

func (s *PostgresSource) Load(ctx context.Context) (*Catalog, error) {
	var (
		chart   *orgchart.Chart
		entries []pathmap.Entry
	)
	err := database.WithTx(ctx, s.DB, database.ReadOnlySnapshot, func(ctx context.Context, q database.Querier) error {
		var err error
		if chart, err = loadChart(ctx, q); err != nil {
			return err
		}
		entries, err = loadEntries(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return New(chart, entries)
}

func loadChart(ctx context.Context, q database.Querier) (*orgchart.Chart, error) {
	rows, err := q.Query(ctx, `
		SELECT division_key, department_key, role_id, role_key, role_label, is_head
		FROM org_roles
		ORDER BY position, role_id`)
	if err != nil {
		return nil, fmt.Errorf("querying org roles: %w", err)
	}
	defer rows.Close()

	chart := &orgchart.Chart{}
	divIdx := map[string]int{}
	deptIdx := map[[2]string]int{}

	for rows.Next() {
		var (
			divKey, deptKey string
			role            orgchart.Role
			isHead          bool
		)
		if err := rows.Scan(&divKey, &deptKey, &role.ID, &role.RoleKey, &role.RoleLabel, &isHead); err != nil {
			return nil, fmt.Errorf("scanning org role: %w", err)
		}

		di, ok := divIdx[divKey]
		if !ok {
			di = len(chart.Divisions)
			divIdx[divKey] = di
			chart.Divisions = append(chart.Divisions, orgchart.Division{Key: divKey})
		}
		div := &chart.Divisions[di]

		key := [2]string{divKey, deptKey}
		pi, ok := deptIdx[key]
		if !ok {
			pi = len(div.Departments)
			deptIdx[key] = pi
			div.Departments = append(div.Departments, orgchart.Department{Key: deptKey})
		}
		dept := &div.Departments[pi]

		if isHead {
			dept.Head = role
		} else {
			dept.Employees = append(dept.Employees, role)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating org roles: %w", err)
	}
	return chart, nil
}

func loadEntries(ctx context.Context, q database.Querier) ([]pathmap.Entry, error) {
	rows, err := q.Query(ctx, `
		SELECT t.template, g.kind, g.role
		FROM path_templates t
		LEFT JOIN path_grants g ON g.template = t.template
		ORDER BY t.position, t.template, g.position, g.role`)
	if err != nil {
		return nil, fmt.Errorf("querying path grants: %w", err)
	}
	defer rows.Close()

	var entries []pathmap.Entry
	idx := map[string]int{}

	for rows.Next() {
		var (
			template   string
			kind, role *string
		)
		if err := rows.Scan(&template, &kind, &role); err != nil {
			return nil, fmt.Errorf("scanning path grant: %w", err)
		}

		i, ok := idx[template]
		if !ok {
			i = len(entries)
			idx[template] = i
			entries = append(entries, pathmap.Entry{Template: template})
		}
		if kind == nil || role == nil {
			continue
		}
		switch *kind {
		case GrantView:
			entries[i].ViewRoles = append(entries[i].ViewRoles, *role)
		case GrantAct:
			entries[i].ActionRoles = append(entries[i].ActionRoles, *role)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating path grants: %w", err)
	}
	return entries, nil
}

// Store replaces the stored catalog with c in a single transaction.
func Store(ctx context.Context, db database.TxBeginner, c *Catalog) error {
	return database.WithTx(ctx, db, pgx.TxOptions{}, func(ctx context.Context, q database.Querier) error {
		if _, err := q.Exec(ctx, Schema); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
		if _, err := q.Exec(ctx, "DELETE FROM path_grants; DELETE FROM path_templates; DELETE FROM org_roles"); err != nil {
			return fmt.Errorf("clearing catalog: %w", err)
		}

		pos := 0
		insertRole := func(div, dept string, r orgchart.Role, head bool) error {
			pos++
			_, err := q.Exec(ctx, `
				INSERT INTO org_roles (division_key, department_key, role_id, role_key, role_label, is_head, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				div, dept, r.ID, r.RoleKey, r.RoleLabel, head, pos)
			if err != nil {
				return fmt.Errorf("inserting role %s: %w", r.ID, err)
			}
			return nil
		}
		if c.Chart != nil {
			for _, div := range c.Chart.Divisions {
				for _, dept := range div.Departments {
					if err := insertRole(div.Key, dept.Key, dept.Head, true); err != nil {
						return err
					}
					for _, emp := range dept.Employees {
						if err := insertRole(div.Key, dept.Key, emp, false); err != nil {
							return err
						}
					}
				}
			}
		}

		for i, e := range c.Paths.Entries() {
			if _, err := q.Exec(ctx, "INSERT INTO path_templates (template, position) VALUES ($1, $2)", e.Template, i); err != nil {
				return fmt.Errorf("inserting template %s: %w", e.Template, err)
			}
			grants := []struct {
				kind  string
				roles []string
			}{{GrantView, e.ViewRoles}, {GrantAct, e.ActionRoles}}
			for _, g := range grants {
				for j, role := range g.roles {
					_, err := q.Exec(ctx, `
						INSERT INTO path_grants (template, kind, role, position)
						VALUES ($1, $2, $3, $4)
						ON CONFLICT DO NOTHING`,
						e.Template, g.kind, role, j)
					if err != nil {
						return fmt.Errorf("inserting %s grant on %s: %w", g.kind, e.Template, err)
					}
				}
			}
		}
		return nil
	})
}
