package action

import (
	"bytes"
	"context"
	"embed"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

//go:embed templates/*.tmpl
var standardTemplates embed.FS

func templateFuncs(tracker interfaces.Tracker) template.FuncMap {
	return template.FuncMap{
		"link": tracker.CreateLinkForWebUI,
	}
}

func render(tmpl *template.Template, props model.Properties) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, props); err != nil {
		return "", goerr.Wrap(err, "failed to render comment", goerr.V("template", tmpl.Name()))
	}
	return strings.TrimSpace(buf.String()), nil
}

// AddComment posts the parameters of the request as a literal comment
type AddComment struct {
	tracker interfaces.Tracker
}

func NewAddComment(tracker interfaces.Tracker) *AddComment {
	return &AddComment{tracker: tracker}
}

func (a *AddComment) Scope() Scope { return ScopeIssue }

func (a *AddComment) Execute(ctx context.Context, issue string, req model.ActionRequest, props model.Properties) error {
	if err := requireParams(req, 1); err != nil {
		return err
	}
	if err := requireTarget(req, issue); err != nil {
		return err
	}
	comment := strings.Join(req.Parameters(), " ")
	return a.tracker.AddComment(ctx, issue, comment)
}

// AddStandardComment posts a fixed text per event type. Event types without a text
// are ignored.
type AddStandardComment struct {
	tracker   interfaces.Tracker
	templates map[string]*template.Template
}

func NewAddStandardComment(tracker interfaces.Tracker) (*AddStandardComment, error) {
	entries, err := standardTemplates.ReadDir("templates")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read standard templates")
	}

	a := &AddStandardComment{
		tracker:   tracker,
		templates: make(map[string]*template.Template, len(entries)),
	}
	for _, entry := range entries {
		eventType := strings.TrimSuffix(entry.Name(), ".tmpl")
		tmpl, err := template.New(entry.Name()).
			Funcs(templateFuncs(tracker)).
			ParseFS(standardTemplates, "templates/"+entry.Name())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to parse standard template", goerr.V("file", entry.Name()))
		}
		a.templates[eventType] = tmpl
	}
	return a, nil
}

func (a *AddStandardComment) Scope() Scope { return ScopeIssue }

func (a *AddStandardComment) Execute(ctx context.Context, issue string, req model.ActionRequest, props model.Properties) error {
	eventType, _ := props.Get(model.PropEventType)
	tmpl, ok := a.templates[eventType]
	if !ok {
		ctxlog.From(ctx).Debug("No standard comment for event type", "event_type", eventType)
		return nil
	}
	if err := requireTarget(req, issue); err != nil {
		return err
	}

	comment, err := render(tmpl, props)
	if err != nil {
		return err
	}
	return a.tracker.AddComment(ctx, issue, comment)
}

// AddTemplateComment renders <dir>/<name>.tmpl with the properties and posts the result
type AddTemplateComment struct {
	tracker interfaces.Tracker
	dir     string
}

func NewAddTemplateComment(tracker interfaces.Tracker, dir string) *AddTemplateComment {
	return &AddTemplateComment{tracker: tracker, dir: dir}
}

func (a *AddTemplateComment) Scope() Scope { return ScopeIssue }

func (a *AddTemplateComment) Execute(ctx context.Context, issue string, req model.ActionRequest, props model.Properties) error {
	if err := requireParams(req, 1); err != nil {
		return err
	}
	if err := requireTarget(req, issue); err != nil {
		return err
	}

	name := req.Parameter(1)
	if a.dir == "" {
		return goerr.New("template directory is not configured", goerr.V("template", name))
	}
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return goerr.New("invalid template name", goerr.V("template", name))
	}

	path := filepath.Join(a.dir, name+".tmpl")
	raw, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "failed to read comment template", goerr.V("path", path))
	}

	tmpl, err := template.New(name).Funcs(templateFuncs(a.tracker)).Parse(string(raw))
	if err != nil {
		return goerr.Wrap(err, "failed to parse comment template", goerr.V("path", path))
	}

	comment, err := render(tmpl, props)
	if err != nil {
		return err
	}
	if comment == "" {
		return nil
	}
	return a.tracker.AddComment(ctx, issue, comment)
}
