package render

import (
	_ "embed"
	"fmt"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

// TemplateID names one of the built-in portfolio templates.
type TemplateID string

const (
	ModernMinimal       TemplateID = "modern-minimal"
	CreativeBold        TemplateID = "creative-bold"
	ProfessionalClassic TemplateID = "professional-classic"
	TechFuturistic      TemplateID = "tech-futuristic"
	PortfolioShowcase   TemplateID = "portfolio-showcase"

	// DefaultTemplate is used whenever an id is unknown.
	DefaultTemplate = ModernMinimal
)

// TemplateIDs lists every template in catalogue order.
var TemplateIDs = []TemplateID{
	ModernMinimal,
	CreativeBold,
	ProfessionalClassic,
	TechFuturistic,
	PortfolioShowcase,
}

// Theme carries the colours injected into a layout's inline stylesheet.
type Theme struct {
	Primary    string `yaml:"primary"`
	Accent     string `yaml:"accent"`
	Background string `yaml:"background"`
	Text       string `yaml:"text"`
}

// Template is the catalogue entry for a template id.
type Template struct {
	ID          TemplateID `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Thumbnail   string     `yaml:"thumbnail"`
	BestFor     []string   `yaml:"bestFor"`
	Layout      string     `yaml:"layout"`
	Theme       Theme      `yaml:"theme"`
}

//go:embed catalogue.yaml
var catalogueYAML []byte

var (
	catalogueOnce sync.Once
	catalogue     map[TemplateID]Template
	catalogueErr  error
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ParseTemplateID reports whether s names a known template.
func ParseTemplateID(s string) (TemplateID, bool) {
	switch id := TemplateID(s); id {
	case ModernMinimal, CreativeBold, ProfessionalClassic, TechFuturistic, PortfolioShowcase:
		return id, true
	default:
		return "", false
	}
}

// Resolve maps any id to a template, falling back to DefaultTemplate for
// unknown or empty ids. It never fails.
func Resolve(id string) Template {
	tid, ok := ParseTemplateID(id)
	if !ok {
		tid = DefaultTemplate
	}
	return MustLoad()[tid]
}

// Lookup returns the catalogue entry for id without falling back.
func Lookup(id string) (Template, bool) {
	tid, ok := ParseTemplateID(id)
	if !ok {
		return Template{}, false
	}
	return MustLoad()[tid], true
}

// Catalogue returns every template in catalogue order.
func Catalogue() []Template {
	c := MustLoad()
	out := make([]Template, 0, len(TemplateIDs))
	for _, id := range TemplateIDs {
		out = append(out, c[id])
	}
	return out
}

// MustLoad parses the embedded catalogue once and panics if it is invalid.
func MustLoad() map[TemplateID]Template {
	catalogueOnce.Do(func() {
		catalogue, catalogueErr = parseCatalogue(catalogueYAML)
	})
	if catalogueErr != nil {
		panic(fmt.Sprintf("render: invalid template catalogue: %v", catalogueErr))
	}
	return catalogue
}

func parseCatalogue(data []byte) (map[TemplateID]Template, error) {
	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	out := make(map[TemplateID]Template, len(doc.Templates))
	for _, t := range doc.Templates {
		if _, ok := ParseTemplateID(string(t.ID)); !ok {
			return nil, fmt.Errorf("unknown template id %q", t.ID)
		}
		if _, dup := out[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		if _, ok := layouts[t.Layout]; !ok {
			return nil, fmt.Errorf("template %q: unknown layout %q", t.ID, t.Layout)
		}
		for _, c := range []string{t.Theme.Primary, t.Theme.Accent, t.Theme.Background, t.Theme.Text} {
			if !hexColorRe.MatchString(c) {
				return nil, fmt.Errorf("template %q: invalid colour %q", t.ID, c)
			}
		}
		out[t.ID] = t
	}
	for _, id := range TemplateIDs {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("template %q missing from catalogue", id)
		}
	}
	return out, nil
}
