package project

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/treeci/treeci/internal/vcs"
	"github.com/valyala/fasttemplate"
)

// Project is one configured source tree: where its pushes come from, what
// access level its tasks run at, which base scopes every task receives
// and where its task graph template lives.
type Project struct {
	Alias      string   `yaml:"-"`
	Repository string   `yaml:"repository"`
	Level      int      `yaml:"level"`
	Scopes     []string `yaml:"scopes"`
	URL        string   `yaml:"url"`
	Poll       bool     `yaml:"poll"`
}

// TemplateURL builds the template fetch URL from the project's URL
// pattern. Recognized tags: host, path, revision, alias.
func (p *Project) TemplateURL(repo vcs.ResolvedRepo, revision string) string {
	return fasttemplate.ExecuteString(p.URL, "{{", "}}", map[string]any{
		"host":     repo.Host,
		"path":     repo.Path,
		"revision": revision,
		"alias":    p.Alias,
	})
}

// Registry is the static per-deployment project configuration. It also
// carries the error-notification template rendered when a project's own
// template cannot be.
type Registry struct {
	ErrorTemplate string              `yaml:"error_template"`
	Projects      map[string]*Project `yaml:"projects"`
}

type UnknownProjectError struct {
	Alias string
}

func (e UnknownProjectError) Error() string {
	return fmt.Sprintf("unknown project %q", e.Alias)
}

// Load reads the registry from a YAML file.
func Load(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project registry: %w", err)
	}
	return Parse(b)
}

// Parse decodes a registry document.
func Parse(b []byte) (*Registry, error) {
	r := new(Registry)
	if err := yaml.Unmarshal(b, r); err != nil {
		return nil, fmt.Errorf("parsing project registry: %w", err)
	}
	for alias, p := range r.Projects {
		p.Alias = alias
	}
	return r, nil
}

// Get returns the project configured under alias.
func (r *Registry) Get(alias string) (*Project, error) {
	p, ok := r.Projects[alias]
	if !ok {
		return nil, UnknownProjectError{Alias: alias}
	}
	return p, nil
}

// Level returns the access level of the project.
func (r *Registry) Level(alias string) (int, error) {
	p, err := r.Get(alias)
	if err != nil {
		return 0, err
	}
	return p.Level, nil
}

// Scopes returns the base authorization scopes of the project.
func (r *Registry) Scopes(alias string) ([]string, error) {
	p, err := r.Get(alias)
	if err != nil {
		return nil, err
	}
	return p.Scopes, nil
}

// List returns all projects ordered by alias.
func (r *Registry) List() []*Project {
	projects := make([]*Project, 0, len(r.Projects))
	for _, p := range r.Projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Alias < projects[j].Alias })
	return projects
}
