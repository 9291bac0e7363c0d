package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/janisto/portfolio-builder/internal/profile"
)

func fullProfile() *profile.Profile {
	return &profile.Profile{
		Name:   "Jane Doe",
		Role:   "Software Engineer",
		Bio:    "Builds reliable backends.",
		Skills: []string{"Go", "Postgres", "Kubernetes"},
		Projects: []profile.Project{
			{
				Title:        "Chat",
				Description:  "Realtime chat service",
				Technologies: []string{"Go", "Redis"},
				Link:         "https://example.com/chat",
			},
			{Title: "Blog", Link: "javascript:alert(1)"},
		},
		Experience: []profile.Experience{
			{Company: "Acme", Position: "Senior Engineer", Duration: "2019 - 2023", Description: "Payments"},
		},
		Education: []profile.Education{
			{Institution: "MIT", Degree: "BSc Computer Science", Year: "2018"},
		},
		Contact: profile.Contact{
			Email:    "jane@example.com",
			Phone:    "+358 40 123 4567",
			LinkedIn: "https://linkedin.com/in/jane",
			GitHub:   "https://github.com/jane",
		},
	}
}

func mustRender(t *testing.T, p *profile.Profile, id string, opts ...Option) string {
	t.Helper()
	html, err := Render(p, id, opts...)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return html
}

func TestRenderNilProfile(t *testing.T) {
	_, err := Render(nil, "modern-minimal")
	if !errors.Is(err, ErrMissingProfile) {
		t.Fatalf("expected ErrMissingProfile, got %v", err)
	}
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RenderError, got %T", err)
	}
}

func TestRenderFullProfile(t *testing.T) {
	html := mustRender(t, fullProfile(), "modern-minimal")

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Jane Doe</title>",
		"<h1>Jane Doe</h1>",
		`<p class="subtitle">Software Engineer</p>`,
		`<p class="bio">Builds reliable backends.</p>`,
		`<meta name="keywords" content="Go, Postgres, Kubernetes">`,
		`<section class="skills">`,
		`<h3>Chat</h3>`,
		`<p class="built-with">Built with: Go, Redis</p>`,
		`href="https://example.com/chat"`,
		"Senior Engineer at Acme",
		"2019 - 2023",
		"MIT | 2018",
		`href="mailto:jane@example.com"`,
		`href="tel:`,
		`358401234567"`,
		`href="https://linkedin.com/in/jane"`,
		`href="https://github.com/jane"`,
		"© Jane Doe | Generated with AI Portfolio Generator",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Contains(html, "javascript:") {
		t.Fatal("expected unsafe project link to be dropped")
	}
	if strings.Count(html, "View Project") != 1 {
		t.Fatalf("expected exactly one project link, got %d", strings.Count(html, "View Project"))
	}
	if strings.Contains(html, "Website</a>") {
		t.Fatal("expected no website link when website is unset")
	}
}

func TestRenderSkillTagsInOrder(t *testing.T) {
	p := &profile.Profile{Name: "Jane", Skills: []string{"Zig", "Ada", "Go"}}
	html := mustRender(t, p, "modern-minimal")

	if got := strings.Count(html, `class="skill-tag"`); got != 3 {
		t.Fatalf("expected 3 skill tags, got %d", got)
	}
	zig := strings.Index(html, `<span class="skill-tag">Zig</span>`)
	ada := strings.Index(html, `<span class="skill-tag">Ada</span>`)
	golang := strings.Index(html, `<span class="skill-tag">Go</span>`)
	if zig < 0 || ada < 0 || golang < 0 || !(zig < ada && ada < golang) {
		t.Fatalf("expected skills in input order, got positions %d %d %d", zig, ada, golang)
	}
}

func TestRenderDropsBlankSkills(t *testing.T) {
	html := mustRender(t, &profile.Profile{Name: "Jane", Skills: []string{"Go", "  ", "", " SQL "}}, "modern-minimal")
	if got := strings.Count(html, `class="skill-tag"`); got != 2 {
		t.Fatalf("expected 2 skill tags, got %d", got)
	}
	if !strings.Contains(html, `<span class="skill-tag">SQL</span>`) {
		t.Fatal("expected trimmed skill")
	}

	blank := mustRender(t, &profile.Profile{Name: "Jane", Skills: []string{"", " "}}, "modern-minimal")
	if strings.Contains(blank, `class="skills"`) || strings.Contains(blank, `class="skill-tag"`) {
		t.Fatal("expected no skills section for blank-only skills")
	}

	normalized := profile.Normalize(profile.Profile{Name: "Jane", Skills: []string{"Go", "  ", "SQL"}})
	html = mustRender(t, &normalized, "modern-minimal")
	if got := strings.Count(html, `class="skill-tag"`); got != len(normalized.Skills) {
		t.Fatalf("expected %d skill tags for a normalized profile, got %d", len(normalized.Skills), got)
	}
}

func TestRenderOmitsEmptySections(t *testing.T) {
	html := mustRender(t, &profile.Profile{Name: "Jane", Role: "Engineer"}, "modern-minimal")

	if !strings.Contains(html, "<h1>Jane</h1>") || !strings.Contains(html, "Engineer") {
		t.Fatal("expected name and role in header")
	}
	for _, unwanted := range []string{
		`class="skills"`,
		`class="skill-tag"`,
		`class="projects"`,
		`class="experience"`,
		`class="education"`,
		`class="contact"`,
		`name="keywords"`,
		"<h2>",
	} {
		if strings.Contains(html, unwanted) {
			t.Errorf("expected output not to contain %q", unwanted)
		}
	}
}

func TestRenderEmptyProfileIsMinimalDocument(t *testing.T) {
	html := mustRender(t, &profile.Profile{}, "")
	if !strings.Contains(html, "<title>Portfolio</title>") {
		t.Fatal("expected fallback title")
	}
	if !strings.HasSuffix(strings.TrimSpace(html), "</html>") {
		t.Fatal("expected complete document")
	}
	if strings.Contains(html, "<h1>") {
		t.Fatal("expected no heading without a name")
	}
}

func TestRenderEscapesText(t *testing.T) {
	p := &profile.Profile{
		Name:     "<script>alert(1)</script>",
		Skills:   []string{`"><img src=x onerror=alert(1)>`},
		Projects: []profile.Project{{Title: "<b>bold</b>"}},
	}
	html := mustRender(t, p, "modern-minimal")

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Fatal("expected script tag to be escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatal("expected escaped script text")
	}
	if strings.Contains(html, "<img src=x") {
		t.Fatal("expected injected img tag to be escaped")
	}
	if strings.Contains(html, "<b>bold</b>") {
		t.Fatal("expected project title to be escaped")
	}
}

func TestRenderUnknownTemplateFallsBack(t *testing.T) {
	p := fullProfile()
	want := mustRender(t, p, "modern-minimal")

	for _, id := range []string{"nonexistent", "", "MODERN-MINIMAL"} {
		if got := mustRender(t, p, id); got != want {
			t.Fatalf("expected template %q to render as modern-minimal", id)
		}
	}
}

func TestRenderAliasesShareStructure(t *testing.T) {
	p := fullProfile()
	base := mustRender(t, p, "modern-minimal")
	for _, id := range TemplateIDs[1:] {
		html := mustRender(t, p, string(id))
		if html == base {
			t.Fatalf("expected %s to use its own theme", id)
		}
		if strings.Count(html, `class="skill-tag"`) != strings.Count(base, `class="skill-tag"`) {
			t.Fatalf("expected %s to share markup structure", id)
		}
		if !strings.Contains(html, Resolve(string(id)).Theme.Primary) {
			t.Fatalf("expected %s primary colour in stylesheet", id)
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	p := fullProfile()
	first := mustRender(t, p, "tech-futuristic")
	for range 5 {
		if mustRender(t, p, "tech-futuristic") != first {
			t.Fatal("expected identical output for identical input")
		}
	}
}

func TestRenderSeparatorOption(t *testing.T) {
	p := &profile.Profile{Skills: []string{"Go", "Rust"}}
	html := mustRender(t, p, "modern-minimal", WithSeparator(" · "))
	if !strings.Contains(html, `content="Go · Rust"`) {
		t.Fatal("expected custom separator in keywords")
	}
}

func TestRenderDropsInvalidContact(t *testing.T) {
	p := &profile.Profile{
		Name: "Jane",
		Contact: profile.Contact{
			Email:   "not-an-email",
			Phone:   "call me",
			Website: "ftp://example.com",
		},
	}
	html := mustRender(t, p, "modern-minimal")
	if strings.Contains(html, `class="contact"`) {
		t.Fatal("expected contact section omitted when no entry is valid")
	}
}

func TestWebURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/a?b=c", "https://example.com/a?b=c"},
		{"  http://example.com  ", "http://example.com"},
		{"javascript:alert(1)", ""},
		{"data:text/html,hi", ""},
		{"/relative/path", ""},
		{"example.com", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := string(webURL(tc.in)); got != tc.want {
			t.Errorf("webURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPhoneDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+358 40 123 4567", "+358401234567"},
		{"(555) 123-4567", "5551234567"},
		{"123", ""},
		{"555-CALL-NOW", ""},
		{"12+345678", ""},
	}
	for _, tc := range tests {
		if got := phoneDigits(tc.in); got != tc.want {
			t.Errorf("phoneDigits(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
