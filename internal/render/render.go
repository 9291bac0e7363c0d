// Package render turns a profile into a self-contained HTML portfolio page
// using one of the built-in templates.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"net/url"
	"strings"

	"github.com/janisto/portfolio-builder/internal/profile"
)

// ErrMissingProfile is returned when Render is called without a profile.
var ErrMissingProfile = errors.New("profile is required")

// RenderError reports a failure to produce a document.
type RenderError struct {
	TemplateID TemplateID
	cause      error
}

func (e *RenderError) Error() string {
	if e.TemplateID == "" {
		return fmt.Sprintf("render: %v", e.cause)
	}
	return fmt.Sprintf("render %s: %v", e.TemplateID, e.cause)
}

// Unwrap enables errors.Is against ErrMissingProfile.
func (e *RenderError) Unwrap() error {
	return e.cause
}

// DefaultSeparator joins inline lists unless WithSeparator overrides it.
const DefaultSeparator = ", "

//go:embed layouts/*.gohtml
var layoutFS embed.FS

var layouts = map[string]*template.Template{
	"standard": mustParseLayout("standard"),
}

func mustParseLayout(name string) *template.Template {
	return template.Must(template.New(name + ".gohtml").
		Funcs(template.FuncMap{"join": join}).
		ParseFS(layoutFS, "layouts/"+name+".gohtml"))
}

func join(items []string, sep string) string {
	return strings.Join(items, sep)
}

type options struct {
	separator string
}

// Option configures a single Render call.
type Option func(*options)

// WithSeparator sets the separator used for inline lists such as the
// keywords meta tag and a project's "Built with" line.
func WithSeparator(sep string) Option {
	return func(o *options) {
		o.separator = sep
	}
}

// Render produces the HTML document for p using the template identified by
// templateID. Unknown ids fall back to DefaultTemplate. Output is
// deterministic for equal inputs.
//
// Skills and technologies are trimmed and blank entries are dropped, so a
// skills list holding only blanks renders no skills section. Callers holding
// a Normalize'd profile get exactly one skill tag per skill.
func Render(p *profile.Profile, templateID string, opts ...Option) (string, error) {
	tpl := Resolve(templateID)
	if p == nil {
		return "", &RenderError{TemplateID: tpl.ID, cause: ErrMissingProfile}
	}

	o := options{separator: DefaultSeparator}
	for _, opt := range opts {
		opt(&o)
	}

	layout, ok := layouts[tpl.Layout]
	if !ok {
		return "", &RenderError{TemplateID: tpl.ID, cause: fmt.Errorf("unknown layout %q", tpl.Layout)}
	}

	var buf bytes.Buffer
	if err := layout.Execute(&buf, newView(*p, tpl.Theme, o.separator)); err != nil {
		return "", &RenderError{TemplateID: tpl.ID, cause: err}
	}
	return buf.String(), nil
}

type view struct {
	Title      string
	Name       string
	Role       string
	Bio        string
	Skills     []string
	Projects   []projectView
	Experience []experienceView
	Education  []educationView
	Contact    *contactView
	Theme      themeView
	Separator  string
}

type projectView struct {
	Title        string
	Description  string
	Technologies []string
	Link         template.URL
	Image        template.URL
}

type experienceView struct {
	Heading     string
	Duration    string
	Description string
}

type educationView struct {
	Degree string
	Detail string
}

type contactView struct {
	Email     string
	EmailHref template.URL
	Phone     string
	PhoneHref template.URL
	LinkedIn  template.URL
	GitHub    template.URL
	Website   template.URL
}

type themeView struct {
	Primary    template.CSS
	Accent     template.CSS
	Background template.CSS
	Text       template.CSS
}

func newView(p profile.Profile, theme Theme, sep string) view {
	title := strings.TrimSpace(p.Name)
	if title == "" {
		title = "Portfolio"
	}
	v := view{
		Title:     title,
		Name:      strings.TrimSpace(p.Name),
		Role:      strings.TrimSpace(p.Role),
		Bio:       strings.TrimSpace(p.Bio),
		Skills:    nonBlank(p.Skills),
		Separator: sep,
		// Colours are validated against #rrggbb when the catalogue loads.
		Theme: themeView{
			Primary:    template.CSS(theme.Primary),
			Accent:     template.CSS(theme.Accent),
			Background: template.CSS(theme.Background),
			Text:       template.CSS(theme.Text),
		},
	}

	for _, pr := range p.Projects {
		if strings.TrimSpace(pr.Title) == "" {
			continue
		}
		v.Projects = append(v.Projects, projectView{
			Title:        pr.Title,
			Description:  strings.TrimSpace(pr.Description),
			Technologies: nonBlank(pr.Technologies),
			Link:         webURL(pr.Link),
			Image:        webURL(pr.Image),
		})
	}

	for _, ex := range p.Experience {
		heading := experienceHeading(ex.Position, ex.Company)
		if heading == "" {
			continue
		}
		v.Experience = append(v.Experience, experienceView{
			Heading:     heading,
			Duration:    strings.TrimSpace(ex.Duration),
			Description: strings.TrimSpace(ex.Description),
		})
	}

	for _, ed := range p.Education {
		degree := strings.TrimSpace(ed.Degree)
		detail := joinNonBlank(" | ", ed.Institution, ed.Year)
		if degree == "" && detail == "" {
			continue
		}
		v.Education = append(v.Education, educationView{Degree: degree, Detail: detail})
	}

	v.Contact = newContactView(p.Contact)
	return v
}

func newContactView(c profile.Contact) *contactView {
	cv := contactView{
		LinkedIn: webURL(c.LinkedIn),
		GitHub:   webURL(c.GitHub),
		Website:  webURL(c.Website),
	}
	if addr, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err == nil && addr.Name == "" {
		cv.Email = addr.Address
		cv.EmailHref = template.URL("mailto:" + url.PathEscape(addr.Address))
	}
	if digits := phoneDigits(c.Phone); digits != "" {
		cv.Phone = strings.TrimSpace(c.Phone)
		cv.PhoneHref = template.URL("tel:" + digits)
	}
	if cv == (contactView{}) {
		return nil
	}
	return &cv
}

func experienceHeading(position, company string) string {
	position = strings.TrimSpace(position)
	company = strings.TrimSpace(company)
	switch {
	case position != "" && company != "":
		return position + " at " + company
	case position != "":
		return position
	default:
		return company
	}
}

// webURL returns s as a trusted URL when it is an absolute http(s) URL with a
// host, and the empty URL otherwise.
func webURL(s string) template.URL {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return template.URL(u.String())
	default:
		return ""
	}
}

// phoneDigits reduces a phone number to a leading + and digits. Numbers with
// fewer than five digits or unexpected characters are rejected.
func phoneDigits(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return ""
		}
	}
	if digits < 5 {
		return ""
	}
	return b.String()
}

func nonBlank(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinNonBlank(sep string, parts ...string) string {
	return strings.Join(nonBlank(parts), sep)
}
