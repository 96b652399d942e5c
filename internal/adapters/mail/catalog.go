// Package mail renders poll notifications and delivers them over SMTP.
package mail

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"

	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
)

//go:embed templates.yaml
var defaultTemplates []byte

const timeLayout = "Mon, 02 Jan 2006 15:04 MST"

// Rendered is a message body in both of its parts.
type Rendered struct {
	Text string
	HTML string
}

type catalogFile struct {
	Layout    string `yaml:"layout"`
	Templates map[string]struct {
		Body string `yaml:"body"`
	} `yaml:"templates"`
}

type entry struct {
	text *template.Template
	html *template.Template
}

// Catalog holds the parsed mail templates.
type Catalog struct {
	baseURL  string
	layout   *htmltemplate.Template
	entries  map[string]entry
	markdown goldmark.Markdown
}

// DefaultCatalog parses the templates shipped with the binary.
func DefaultCatalog(baseURL string) (*Catalog, error) {
	return LoadCatalog(defaultTemplates, baseURL)
}

// LoadCatalog parses a YAML template catalog. Links to polls are built from
// baseURL.
func LoadCatalog(data []byte, baseURL string) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse mail catalog: %w", err)
	}
	if len(file.Templates) == 0 {
		return nil, fmt.Errorf("mail catalog has no templates")
	}

	c := &Catalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		entries: make(map[string]entry, len(file.Templates)),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}

	layout := file.Layout
	if strings.TrimSpace(layout) == "" {
		layout = "{{.Body}}"
	}
	var err error
	c.layout, err = htmltemplate.New("layout").Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail layout: %w", err)
	}

	for name, t := range file.Templates {
		text, err := template.New(name).Funcs(c.funcs(false)).Parse(t.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mail template %s: %w", name, err)
		}
		htmlBody, err := template.New(name).Funcs(c.funcs(true)).Parse(t.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mail template %s: %w", name, err)
		}
		c.entries[name] = entry{text: text, html: htmlBody}
	}

	return c, nil
}

// Render executes the named template against data.
func (c *Catalog) Render(name string, data any) (Rendered, error) {
	e, ok := c.entries[name]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown mail template %q", name)
	}

	var text bytes.Buffer
	if err := e.text.Execute(&text, data); err != nil {
		return Rendered{}, fmt.Errorf("failed to render mail template %s: %w", name, err)
	}

	var source bytes.Buffer
	if err := e.html.Execute(&source, data); err != nil {
		return Rendered{}, fmt.Errorf("failed to render mail template %s: %w", name, err)
	}
	var body bytes.Buffer
	if err := c.markdown.Convert(source.Bytes(), &body); err != nil {
		return Rendered{}, fmt.Errorf("failed to convert mail template %s: %w", name, err)
	}

	var page bytes.Buffer
	if err := c.layout.Execute(&page, struct{ Body htmltemplate.HTML }{htmltemplate.HTML(body.String())}); err != nil {
		return Rendered{}, fmt.Errorf("failed to render mail layout: %w", err)
	}

	return Rendered{Text: text.String(), HTML: page.String()}, nil
}

// PollURL is the link a recipient follows to open the poll.
func (c *Catalog) PollURL(id uuid.UUID) string {
	return c.baseURL + "/poll/" + id.String()
}

func (c *Catalog) funcs(forHTML bool) template.FuncMap {
	funcs := template.FuncMap{
		"pollURL":    c.PollURL,
		"formatTime": formatTime,
		"escape":     func(s string) string { return s },
		"vote":       func(v domain.Vote) string { return v.Icon() },
	}
	if forHTML {
		funcs["escape"] = escapeMarkdown
		funcs["vote"] = func(v domain.Vote) string {
			return fmt.Sprintf(`<span class="%s">%s</span>`, v.Class(), v.Icon())
		}
	}
	return funcs
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`|`, `\|`, `#`, `\#`, `!`, `\!`,
)

// escapeMarkdown keeps user supplied text from being read as markup.
func escapeMarkdown(s string) string {
	return html.EscapeString(markdownEscaper.Replace(s))
}
