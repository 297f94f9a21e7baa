// Package templates renders the site's transactional emails. HTML bodies are
// built with gomponents; plain-text alternatives are Handlebars templates.
package templates

import (
	"embed"
	"fmt"
	"strings"

	"github.com/aymerick/raymond"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

//go:embed text/*.hbs
var textFS embed.FS

// Email is a rendered message ready for a mailer.Sender.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

const emailCSS = `body{margin:0;padding:0;background:#f4f5f7;font-family:Helvetica,Arial,sans-serif;color:#1d2433}
.wrap{max-width:600px;margin:0 auto;padding:24px}
.card{background:#ffffff;border-radius:8px;padding:24px}
h1{font-size:20px;margin:0 0 16px}
table.meta{border-collapse:collapse;width:100%;margin-bottom:16px}
table.meta th{text-align:left;padding:4px 12px 4px 0;color:#5b6475;font-weight:normal;white-space:nowrap;vertical-align:top}
table.meta td{padding:4px 0}
.message{white-space:pre-wrap;border-left:3px solid #0b5fff;padding-left:12px}
.footer{font-size:12px;color:#5b6475;margin-top:16px}`

// layout wraps body in the shared email chrome.
func layout(title string, body ...g.Node) g.Node {
	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(g.Text(title)),
				StyleEl(g.Raw(emailCSS)),
			),
			Body(
				Div(Class("wrap"),
					Div(Class("card"), g.Group(body)),
					P(Class("footer"), g.Text("Halyard · Consulting, academy and talent for maritime and energy")),
				),
			),
		),
	)
}

// metaRow renders a label/value row, or nothing when value is empty.
func metaRow(label string, value g.Node, present bool) g.Node {
	return g.If(present, Tr(Th(g.Text(label)), Td(value)))
}

func renderHTML(n g.Node) (string, error) {
	var b strings.Builder
	if err := n.Render(&b); err != nil {
		return "", fmt.Errorf("failed to render email html: %w", err)
	}
	return b.String(), nil
}

// textTemplate parses an embedded Handlebars template.
func textTemplate(name string) *raymond.Template {
	content, err := textFS.ReadFile("text/" + name + ".hbs")
	if err != nil {
		panic(fmt.Sprintf("missing email text template %s: %v", name, err))
	}
	return raymond.MustParse(string(content))
}

func renderText(tpl *raymond.Template, ctx map[string]any) (string, error) {
	out, err := tpl.Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to render email text: %w", err)
	}
	return out, nil
}
