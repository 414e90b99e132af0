package pathmap

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateTemplate = errors.New("duplicate path template")
	ErrInvalidTemplate   = errors.New("invalid path template")
)

// Entry lists the roles allowed to view and to act on a path template.
// Role lists are sets; their order carries no meaning.
type Entry struct {
	Template    string   `json:"template" koanf:"template"`
	ViewRoles   []string `json:"viewRoles" koanf:"view_roles"`
	ActionRoles []string `json:"actionRoles" koanf:"action_roles"`
}

type segmentKind int

const (
	literal segmentKind = iota
	param
	catchAll
)

type segment struct {
	kind  segmentKind
	value string
}

type compiled struct {
	entry    Entry
	segments []segment
	dynamic  bool
}

// Map is an ordered, validated set of path templates.
type Map struct {
	entries []compiled
	index   map[string]int
}

// Match is the result of resolving a concrete path.
type Match struct {
	Template string
	Entry    Entry
	Params   map[string]string
	Score    int
}

// New validates and compiles the given entries. Declaration order is kept and
// used as the last tie-break when matching.
func New(entries ...Entry) (*Map, error) {
	m := &Map{
		entries: make([]compiled, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		tmpl := Normalize(e.Template)
		if tmpl != e.Template {
			return nil, fmt.Errorf("%w: %q is not normalized (want %q)", ErrInvalidTemplate, e.Template, tmpl)
		}
		if _, ok := m.index[tmpl]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTemplate, tmpl)
		}
		segs, err := compile(tmpl)
		if err != nil {
			return nil, err
		}
		c := compiled{entry: e, segments: segs}
		for _, s := range segs {
			if s.kind != literal {
				c.dynamic = true
			}
		}
		m.index[tmpl] = len(m.entries)
		m.entries = append(m.entries, c)
	}
	return m, nil
}

// MustNew is New for statically authored maps.
func MustNew(entries ...Entry) *Map {
	m, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return m
}

func compile(tmpl string) ([]segment, error) {
	if !strings.HasPrefix(tmpl, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidTemplate, tmpl)
	}
	parts := split(tmpl)
	segs := make([]segment, 0, len(parts))
	for i, p := range parts {
		if !strings.HasPrefix(p, "[") || !strings.HasSuffix(p, "]") {
			if strings.ContainsAny(p, "[]") {
				return nil, fmt.Errorf("%w: %q has a malformed segment %q", ErrInvalidTemplate, tmpl, p)
			}
			segs = append(segs, segment{kind: literal, value: p})
			continue
		}
		name := p[1 : len(p)-1]
		kind := param
		if strings.HasPrefix(name, "...") {
			name = strings.TrimPrefix(name, "...")
			kind = catchAll
			if i != len(parts)-1 {
				return nil, fmt.Errorf("%w: %q catch-all must be the last segment", ErrInvalidTemplate, tmpl)
			}
		}
		if name == "" || strings.ContainsAny(name, "[]") {
			return nil, fmt.Errorf("%w: %q has an empty or malformed parameter", ErrInvalidTemplate, tmpl)
		}
		segs = append(segs, segment{kind: kind, value: name})
	}
	return segs, nil
}

// Len returns the number of templates.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the entries in declaration order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	for i, c := range m.entries {
		out[i] = c.entry
	}
	return out
}

// Lookup returns the entry registered under the exact template string.
func (m *Map) Lookup(template string) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	i, ok := m.index[template]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i].entry, true
}

// Match resolves a concrete path to the best template. An exact template
// wins outright. Otherwise the template with the most literal segment matches
// wins, then the one with the longest literal prefix, then the one declared
// first.
func (m *Map) Match(path string) (Match, bool) {
	if m == nil {
		return Match{}, false
	}
	path = Normalize(path)
	if i, ok := m.index[path]; ok && !m.entries[i].dynamic {
		e := m.entries[i]
		return Match{Template: e.entry.Template, Entry: e.entry, Score: len(e.segments)}, true
	}

	parts := split(path)
	best := -1
	bestScore, bestPrefix := -1, -1
	var bestParams map[string]string
	for i, c := range m.entries {
		if !c.dynamic {
			continue
		}
		params, score, prefix, ok := c.match(parts)
		if !ok {
			continue
		}
		if score > bestScore || (score == bestScore && prefix > bestPrefix) {
			best, bestScore, bestPrefix, bestParams = i, score, prefix, params
		}
	}
	if best < 0 {
		return Match{}, false
	}
	e := m.entries[best].entry
	return Match{Template: e.Template, Entry: e, Params: bestParams, Score: bestScore}, true
}

func (c compiled) match(parts []string) (params map[string]string, score, prefix int, ok bool) {
	params = make(map[string]string)
	literalRun := true
	for i, seg := range c.segments {
		switch seg.kind {
		case catchAll:
			if i >= len(parts) {
				return nil, 0, 0, false
			}
			params[seg.value] = strings.Join(parts[i:], "/")
			return params, score, prefix, true
		case param:
			if i >= len(parts) {
				return nil, 0, 0, false
			}
			params[seg.value] = parts[i]
			literalRun = false
		default:
			if i >= len(parts) || parts[i] != seg.value {
				return nil, 0, 0, false
			}
			score++
			if literalRun {
				prefix++
			}
		}
	}
	if len(parts) != len(c.segments) {
		return nil, 0, 0, false
	}
	return params, score, prefix, true
}

// Normalize strips query and fragment, collapses repeated slashes and drops
// a trailing slash. The empty path becomes "/".
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := split(path)
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

func split(path string) []string {
	raw := strings.Split(path, "/")
	parts := raw[:0:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
