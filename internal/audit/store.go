package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valinor-ai/navgate/internal/platform/database"
)

// Schema creates the audit_events table. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         UUID        NOT NULL PRIMARY KEY,
	user_id    TEXT        NOT NULL DEFAULT '',
	action     TEXT        NOT NULL,
	path       TEXT        NOT NULL DEFAULT '',
	metadata   JSONB,
	source     TEXT        NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS audit_events_created_at_idx ON audit_events (created_at DESC);
`

// StoredEvent is an event read back from audit_events.
type StoredEvent struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"user_id"`
	Action    string          `json:"action"`
	Path      string          `json:"path"`
	Metadata  json.RawMessage `json:"metadata"`
	Source    string          `json:"source"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store handles audit event persistence.
type Store struct{}

// NewStore creates an audit Store.
func NewStore() *Store {
	return &Store{}
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context, db database.Querier) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("creating audit schema: %w", err)
	}
	return nil
}

// InsertBatch writes a batch of events to the database.
func (s *Store) InsertBatch(ctx context.Context, db database.Querier, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	sql, args, err := buildBatchInsert(events)
	if err != nil {
		return fmt.Errorf("building batch insert: %w", err)
	}
	_, err = db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("inserting audit events: %w", err)
	}
	return nil
}

// buildBatchInsert constructs a multi-row INSERT statement.
func buildBatchInsert(events []Event) (string, []any, error) {
	const cols = "(id, user_id, action, path, metadata, source)"
	var placeholders []string
	var args []any

	for i, e := range events {
		base := i * 6
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))

		var metaJSON []byte
		var err error
		if e.Metadata != nil {
			metaJSON, err = json.Marshal(e.Metadata)
			if err != nil {
				return "", nil, fmt.Errorf("marshaling metadata: %w", err)
			}
		}

		args = append(args, uuid.New(), e.UserID, e.Action, e.Path, metaJSON, e.Source)
	}

	sql := fmt.Sprintf("INSERT INTO audit_events %s VALUES %s", cols, strings.Join(placeholders, ", "))
	return sql, args, nil
}

// ListEventsParams defines filters for querying audit events.
type ListEventsParams struct {
	Action *string
	UserID *string
	Path   *string
	Source *string
	After  *time.Time
	Before *time.Time
	Limit  int
}

// ListEvents returns the newest events matching p.
func (s *Store) ListEvents(ctx context.Context, db database.Querier, p ListEventsParams) ([]StoredEvent, error) {
	sql, args := buildListQuery(p)
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	events := []StoredEvent{}
	for rows.Next() {
		var e StoredEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Path, &e.Metadata, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit events: %w", err)
	}
	return events, nil
}

// buildListQuery constructs a parameterized SELECT for audit events.
func buildListQuery(p ListEventsParams) (string, []any) {
	var conditions []string
	var args []any
	argN := 1

	add := func(cond string, v any) {
		conditions = append(conditions, fmt.Sprintf(cond, argN))
		args = append(args, v)
		argN++
	}

	if p.Action != nil {
		add("action = $%d", *p.Action)
	}
	if p.UserID != nil {
		add("user_id = $%d", *p.UserID)
	}
	if p.Path != nil {
		add("path = $%d", *p.Path)
	}
	if p.Source != nil {
		add("source = $%d", *p.Source)
	}
	if p.After != nil {
		add("created_at > $%d", *p.After)
	}
	if p.Before != nil {
		add("created_at < $%d", *p.Before)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	sql := fmt.Sprintf(
		`SELECT id, user_id, action, path, metadata, source, created_at
		FROM audit_events
		%s
		ORDER BY created_at DESC
		LIMIT $%d`,
		where, argN,
	)
	args = append(args, p.Limit)

	return sql, args
}
