package dataset

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sahilm/fuzzy"
)

// Meta describes one dataset of the open file.
type Meta struct {
	Path     string
	Shape    []int
	DimNames []string
	// Labels holds one label per index for dimensions that have a label
	// dataset; a nil entry means the index itself is the label.
	Labels [][]string
	// Type is the Go element type, e.g. "float64".
	Type string
	// Class is the free-form "type" attribute, e.g. "parameter".
	Class string
	Units string
	Doc   string
}

// NDims returns the number of dimensions.
func (m Meta) NDims() int {
	return len(m.Shape)
}

// Size returns the number of elements.
func (m Meta) Size() int {
	n := 1
	for _, s := range m.Shape {
		n *= s
	}
	return n
}

// DimName returns the name of dimension d.
func (m Meta) DimName(d int) string {
	if d >= 0 && d < len(m.DimNames) && m.DimNames[d] != "" {
		return m.DimNames[d]
	}
	return "dim" + strconv.Itoa(d)
}

// Label returns the label of index i along dimension d.
func (m Meta) Label(d, i int) string {
	if d >= 0 && d < len(m.Labels) && i >= 0 && i < len(m.Labels[d]) {
		return m.Labels[d][i]
	}
	return strconv.Itoa(i)
}

// Group returns the first path element, where label datasets live.
func (m Meta) Group() string {
	p := strings.TrimPrefix(m.Path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}

// ShapeString formats the shape as "[120, 5]".
func (m Meta) ShapeString() string {
	parts := make([]string, len(m.Shape))
	for i, s := range m.Shape {
		parts[i] = strconv.Itoa(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Catalog is the read-only listing of the datasets of one file.
type Catalog struct {
	paths []string
	metas map[string]Meta
}

// NewCatalog builds a catalog sorted by path. Later duplicates win.
func NewCatalog(metas []Meta) *Catalog {
	c := &Catalog{metas: make(map[string]Meta, len(metas))}
	for _, m := range metas {
		if _, ok := c.metas[m.Path]; !ok {
			c.paths = append(c.paths, m.Path)
		}
		c.metas[m.Path] = m
	}
	sort.Strings(c.paths)
	return c
}

// Len returns the number of datasets.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.paths)
}

// Has reports whether path is in the catalog.
func (c *Catalog) Has(path string) bool {
	_, ok := c.Get(path)
	return ok
}

// Get returns the metadata for path.
func (c *Catalog) Get(path string) (Meta, bool) {
	if c == nil {
		return Meta{}, false
	}
	m, ok := c.metas[path]
	return m, ok
}

// Paths returns a copy of the sorted dataset paths.
func (c *Catalog) Paths() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.paths))
	copy(out, c.paths)
	return out
}

// Filter returns the datasets matching query. Word mode keeps paths that
// contain every whitespace separated word, case-insensitively, in catalog
// order. Fuzzy mode ranks paths by fuzzy match score.
func (c *Catalog) Filter(query string, fuzzyMode bool) []Meta {
	if c == nil {
		return nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return c.all()
	}
	if fuzzyMode {
		matches := fuzzy.Find(query, c.paths)
		out := make([]Meta, 0, len(matches))
		for _, m := range matches {
			out = append(out, c.metas[c.paths[m.Index]])
		}
		return out
	}

	words := strings.Fields(strings.ToLower(query))
	var out []Meta
	for _, p := range c.paths {
		lower := strings.ToLower(p)
		ok := true
		for _, w := range words {
			if !strings.Contains(lower, w) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c.metas[p])
		}
	}
	return out
}

func (c *Catalog) all() []Meta {
	out := make([]Meta, 0, len(c.paths))
	for _, p := range c.paths {
		out = append(out, c.metas[p])
	}
	return out
}

// Restrict returns a catalog holding the datasets matched by at least one
// include pattern (all when include is empty) and by no exclude pattern.
// Patterns are globs with '/' as separator, e.g. "routput/*".
func (c *Catalog) Restrict(include, exclude []string) (*Catalog, error) {
	inc, err := compileGlobs(include)
	if err != nil {
		return nil, err
	}
	exc, err := compileGlobs(exclude)
	if err != nil {
		return nil, err
	}

	var kept []Meta
	for _, p := range c.paths {
		if len(inc) > 0 && !matchAny(inc, p) {
			continue
		}
		if matchAny(exc, p) {
			continue
		}
		kept = append(kept, c.metas[p])
	}
	return NewCatalog(kept), nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}
