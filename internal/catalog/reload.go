package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/valinor-ai/navgate/internal/audit"
	"github.com/valinor-ai/navgate/internal/permissions"
	"github.com/valinor-ai/navgate/internal/platform/metrics"
	"github.com/valinor-ai/navgate/internal/rolemapper"
)

// Reloader pulls a fresh catalog from its source and swaps it into the
// role mapper and permission cache. A failed load leaves both untouched.
type Reloader struct {
	mu     sync.Mutex
	source Source
	mapper *rolemapper.Mapper
	cache  *permissions.Cache
	audit  audit.Logger
}

func NewReloader(source Source, mapper *rolemapper.Mapper, cache *permissions.Cache, auditLog audit.Logger) *Reloader {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Reloader{source: source, mapper: mapper, cache: cache, audit: auditLog}
}

// Reload loads and installs the catalog. source names the trigger in the
// audit trail, e.g. "api" or "signal".
func (r *Reloader) Reload(ctx context.Context, source string) (*Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(ctx)
	metrics.RecordCatalogReload(err)
	if err != nil {
		slog.Error("catalog reload failed", "error", err, "source", source)
		r.audit.Log(ctx, audit.Event{
			Action:   audit.ActionCatalogReloadFailed,
			Source:   source,
			Metadata: map[string]any{"error": err.Error()},
		})
		return nil, err
	}

	r.mapper.SetChart(c.Chart)
	r.cache.SetPaths(c.Paths)

	slog.Info("catalog reloaded", "templates", c.Paths.Len(), "roles", len(c.Chart.Roles()), "source", source)
	r.audit.Log(ctx, audit.Event{
		Action: audit.ActionCatalogReloaded,
		Source: source,
		Metadata: map[string]any{
			"templates": c.Paths.Len(),
			"epoch":     r.cache.Epoch(),
		},
	})
	return c, nil
}

func (r *Reloader) load(ctx context.Context) (*Catalog, error) {
	if r.source == nil {
		return nil, ErrNoSource
	}
	c, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	if c == nil || c.Paths == nil {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}
