package service

import (
	"errors"
	"io"
	"log"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/treeci/treeci/internal/graph"
	"github.com/valyala/fasttemplate"
)

const (
	legacyVersionMarker = "version: 0"
	schedulerIDPrefix   = "gecko-level-"
)

// Variables is the per-push substitution mapping handed to the template.
// Built once per job and read-only afterwards. An empty value means "not
// applicable" and is never rendered literally; callers substitute a
// single space so the template engine does not treat the variable as
// unset.
type Variables map[string]string

// TemplateRenderer turns raw template text into a task graph. Variable
// substitution is deliberately unescaped: template sources are vetted
// per-project configuration, never end-user input.
type TemplateRenderer struct{}

func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

// Render renders rawTemplate with vars. When the template is malformed or
// of an unsupported version, the project's static error template is
// rendered instead so the push still produces a visible diagnostic task
// rather than disappearing silently.
func (r *TemplateRenderer) Render(
	rawTemplate string,
	vars Variables,
	errorTemplate string,
) (*graph.Graph, error) {
	g, err := r.render(rawTemplate, vars)
	if err == nil {
		return g, nil
	}
	log.Printf("err rendering task graph template, falling back to error template: %+v", err)
	return r.renderErrorGraph(errorTemplate, vars, err)
}

func (r *TemplateRenderer) render(rawTemplate string, vars Variables) (*graph.Graph, error) {
	version, err := detectVersion(rawTemplate)
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, UnsupportedTemplateVersionError{Version: version}
	}

	substituted, err := substitute(rawTemplate, vars)
	if err != nil {
		return nil, TemplateParseError{Err: err}
	}

	var doc struct {
		Version int          `yaml:"version"`
		Tasks   []graph.Task `yaml:"tasks"`
	}
	if err := yaml.Unmarshal([]byte(substituted), &doc); err != nil {
		return nil, TemplateParseError{Err: err}
	}

	schedulerID := schedulerIDPrefix + vars["level"]
	tasks := make([]graph.Task, 0, len(doc.Tasks))
	for _, entry := range doc.Tasks {
		def := graph.WithSchedulerID(graph.Inner(entry), schedulerID)
		tasks = append(tasks, graph.WithInner(entry, def))
	}
	return &graph.Graph{Version: 0, Tasks: tasks}, nil
}

// detectVersion reads the template's version field with a strict parse.
// Legacy version 0 templates are not valid YAML until variables have been
// substituted, so a parse failure still selects version 0 when the raw
// text carries the legacy marker. That is the only heuristic; any other
// parse failure propagates.
func detectVersion(rawTemplate string) (int, error) {
	var probe struct {
		Version *int `yaml:"version"`
	}
	if err := yaml.Unmarshal([]byte(rawTemplate), &probe); err != nil {
		if strings.Contains(rawTemplate, legacyVersionMarker) {
			return 0, nil
		}
		return 0, TemplateParseError{Err: err}
	}
	if probe.Version == nil {
		return 0, TemplateParseError{Err: errors.New("template has no version field")}
	}
	return *probe.Version, nil
}

func substitute(rawTemplate string, vars Variables) (string, error) {
	return fasttemplate.ExecuteFuncStringWithErr(
		rawTemplate, "{{", "}}",
		func(w io.Writer, tag string) (int, error) {
			return w.Write([]byte(vars[tag]))
		},
	)
}

// renderErrorGraph renders the error-notification template with the same
// variables and makes sure its task reports what went wrong. Error
// templates define exactly one task; if one ever defines more, only the
// first receives the message.
func (r *TemplateRenderer) renderErrorGraph(
	errorTemplate string,
	vars Variables,
	cause error,
) (*graph.Graph, error) {
	g, err := r.render(errorTemplate, vars)
	if err != nil {
		return nil, errors.Join(cause, err)
	}
	if len(g.Tasks) > 0 {
		entry := g.Tasks[0]
		def := graph.WithErrorMessage(graph.Inner(entry), cause.Error())
		g.Tasks[0] = graph.WithInner(entry, def)
	}
	return g, nil
}
