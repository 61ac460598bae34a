package problem

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/criyle/ts-judge/types"
	"github.com/goccy/go-yaml"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

var _ Catalog = &StaticCatalog{}

// StaticCatalog is an immutable catalog backed by a slice
type StaticCatalog struct {
	problems []types.Problem
	index    map[string]int
}

// NewCatalog validates problems and creates a catalog keeping their order
func NewCatalog(problems []types.Problem) (*StaticCatalog, error) {
	c := &StaticCatalog{
		problems: make([]types.Problem, 0, len(problems)),
		index:    make(map[string]int, len(problems)),
	}
	for _, p := range problems {
		if err := Validate(p); err != nil {
			return nil, err
		}
		if _, ok := c.index[p.ID]; ok {
			return nil, fmt.Errorf("duplicated problem id %q", p.ID)
		}
		c.index[p.ID] = len(c.problems)
		c.problems = append(c.problems, p)
	}
	return c, nil
}

// Validate checks the invariants of a single problem
func Validate(p types.Problem) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("problem id is empty")
	}
	if !p.Difficulty.Valid() {
		return fmt.Errorf("problem %q: invalid difficulty %q", p.ID, p.Difficulty)
	}
	if p.Title == "" {
		return fmt.Errorf("problem %q: title is empty", p.ID)
	}
	return nil
}

// Builtin loads the problems embedded in the binary
func Builtin() (*StaticCatalog, error) {
	return LoadFS(builtinFS, "builtin")
}

// LoadDir loads every .yaml / .yml file in dir, one problem per file,
// ordered by file name
func LoadDir(dir string) (*StaticCatalog, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// LoadFS loads problem files under dir of fsys
func LoadFS(fsys fs.FS, dir string) (*StaticCatalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := path.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	problems := make([]types.Problem, 0, len(names))
	for _, n := range names {
		b, err := fs.ReadFile(fsys, path.Join(dir, n))
		if err != nil {
			return nil, err
		}
		p, err := Parse(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n, err)
		}
		problems = append(problems, p)
	}
	return NewCatalog(problems)
}

// Parse decodes a single problem from YAML
func Parse(b []byte) (types.Problem, error) {
	var p types.Problem
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, err
	}
	return p, Validate(p)
}

// Get implements Catalog
func (c *StaticCatalog) Get(id string) (types.Problem, bool) {
	i, ok := c.index[id]
	if !ok {
		return types.Problem{}, false
	}
	return c.problems[i], true
}

// All implements Catalog
func (c *StaticCatalog) All() []types.Problem {
	return slices.Clone(c.problems)
}

// Adjacent implements Catalog
func (c *StaticCatalog) Adjacent(id string) (prev, next string) {
	i, ok := c.index[id]
	if !ok {
		return "", ""
	}
	if i > 0 {
		prev = c.problems[i-1].ID
	}
	if i+1 < len(c.problems) {
		next = c.problems[i+1].ID
	}
	return prev, next
}
