package catalog

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/valinor-ai/navgate/internal/orgchart"
	"github.com/valinor-ai/navgate/internal/pathmap"
)

// FileSource reads a YAML catalog:
//
//	org:
//	  divisions:
//	    - key: commercial
//	      departments:
//	        - key: purchasing
//	          head: {id: 5e7a..., role_key: PurchasingHead}
//	          employees: [{id: 5e7b...}]
//	paths:
//	  - template: /dashboard/management/suppliers/[id]
//	    view_roles: [5e7a...]
//	    action_roles: [5e7a...]
type FileSource struct {
	Path string
}

func (s FileSource) Load(context.Context) (*Catalog, error) {
	// Path templates contain dots only in values, never in keys.
	k := koanf.New(".")
	if err := k.Load(file.Provider(s.Path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", s.Path, err)
	}

	var chart orgchart.Chart
	if err := k.Unmarshal("org", &chart); err != nil {
		return nil, fmt.Errorf("decoding org chart: %w", err)
	}

	var entries []pathmap.Entry
	if err := k.Unmarshal("paths", &entries); err != nil {
		return nil, fmt.Errorf("decoding paths: %w", err)
	}

	return New(&chart, entries)
}
