package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/valinor-ai/navgate/internal/orgchart"
	"github.com/valinor-ai/navgate/internal/pathmap"
	"github.com/valinor-ai/navgate/internal/platform/database"
)

// Source kinds accepted by NewSource.
const (
	SourceDefault  = "default"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

var (
	ErrUnknownSource = errors.New("unknown catalog source")
	ErrNoSource      = errors.New("catalog source is not configured")
	ErrEmptyCatalog  = errors.New("source returned no catalog")
)

// Catalog is the static access configuration: who exists in the org chart
// and which roles may view or act on which dashboard paths.
type Catalog struct {
	Chart *orgchart.Chart
	Paths *pathmap.Map
}

// Source loads a catalog.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// New validates chart and compiles entries into a Catalog.
func New(chart *orgchart.Chart, entries []pathmap.Entry) (*Catalog, error) {
	if chart == nil {
		chart = &orgchart.Chart{}
	}
	if err := chart.Validate(); err != nil {
		return nil, fmt.Errorf("validating org chart: %w", err)
	}
	paths, err := pathmap.New(entries...)
	if err != nil {
		return nil, fmt.Errorf("compiling path map: %w", err)
	}
	return &Catalog{Chart: chart, Paths: paths}, nil
}

// StaticSource always returns the same catalog.
type StaticSource struct {
	Catalog *Catalog
}

func (s StaticSource) Load(context.Context) (*Catalog, error) {
	if s.Catalog == nil {
		return nil, fmt.Errorf("static catalog not set")
	}
	return s.Catalog, nil
}

// NewSource picks a Source by kind. db is only needed for SourcePostgres.
func NewSource(kind, path string, db database.TxBeginner) (Source, error) {
	switch kind {
	case SourceDefault, "":
		return StaticSource{Catalog: Default()}, nil
	case SourceFile:
		if path == "" {
			return nil, fmt.Errorf("%w: file source needs a catalog path", ErrNoSource)
		}
		return FileSource{Path: path}, nil
	case SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("%w: postgres source needs a database", ErrNoSource)
		}
		return NewPostgresSource(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
	}
}
