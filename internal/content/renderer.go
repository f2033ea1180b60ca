package content

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/osteele/liquid"
)

// Rendered is one recipient's email after template substitution.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer parses the campaign templates once and renders them per recipient.
// It is safe for concurrent use.
type Renderer struct {
	engine  *liquid.Engine
	subject *liquid.Template
	html    *liquid.Template
	text    *liquid.Template
}

func NewRenderer(t Templates) (*Renderer, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)

	r := &Renderer{engine: engine}
	var err error
	if r.subject, err = parse(engine, "subject", t.Subject); err != nil {
		return nil, err
	}
	if r.html, err = parse(engine, "html", t.HTML); err != nil {
		return nil, err
	}
	if t.Text != "" {
		if r.text, err = parse(engine, "text", t.Text); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func parse(engine *liquid.Engine, name, source string) (*liquid.Template, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%s template is empty", name)
	}
	tpl, err := engine.ParseString(source)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	return tpl, nil
}

func registerFilters(engine *liquid.Engine) {
	// {{ full_name | titlecase }}
	engine.RegisterFilter("titlecase", func(s string) string {
		words := strings.Fields(strings.ToLower(s))
		for i, w := range words {
			first, size := utf8.DecodeRuneInString(w)
			words[i] = string(unicode.ToTitle(first)) + w[size:]
		}
		return strings.Join(words, " ")
	})
}

func (r *Renderer) Render(tc domain.TemplateContext) (Rendered, error) {
	bindings := liquid.Bindings(tc)

	subject, err := r.subject.RenderString(bindings)
	if err != nil {
		return Rendered{}, fmt.Errorf("render subject: %w", err)
	}
	html, err := r.html.RenderString(bindings)
	if err != nil {
		return Rendered{}, fmt.Errorf("render html body: %w", err)
	}
	out := Rendered{
		Subject: strings.TrimSpace(subject),
		HTML:    html,
	}
	if r.text != nil {
		if out.Text, err = r.text.RenderString(bindings); err != nil {
			return Rendered{}, fmt.Errorf("render text body: %w", err)
		}
	}
	return out, nil
}
