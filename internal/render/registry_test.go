package render

import (
	"strings"
	"testing"
)

func TestParseTemplateID(t *testing.T) {
	for _, id := range TemplateIDs {
		got, ok := ParseTemplateID(string(id))
		if !ok || got != id {
			t.Fatalf("expected %q to parse", id)
		}
	}
	for _, bad := range []string{"", "nonexistent", "Modern-Minimal", " modern-minimal"} {
		if _, ok := ParseTemplateID(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	for _, id := range []string{"", "nonexistent", "<script>"} {
		if got := Resolve(id); got.ID != DefaultTemplate {
			t.Fatalf("expected %q to resolve to %s, got %s", id, DefaultTemplate, got.ID)
		}
	}
	if got := Resolve("creative-bold"); got.ID != CreativeBold || got.Name != "Creative Bold" {
		t.Fatalf("unexpected template: %+v", got)
	}
}

func TestLookupDoesNotFallBack(t *testing.T) {
	if _, ok := Lookup("nonexistent"); ok {
		t.Fatal("expected unknown id to be missing")
	}
	tpl, ok := Lookup("portfolio-showcase")
	if !ok || tpl.Name != "Portfolio Showcase" {
		t.Fatalf("unexpected lookup result: %+v %v", tpl, ok)
	}
}

func TestCatalogueOrderAndMetadata(t *testing.T) {
	cat := Catalogue()
	if len(cat) != len(TemplateIDs) {
		t.Fatalf("expected %d templates, got %d", len(TemplateIDs), len(cat))
	}
	for i, tpl := range cat {
		if tpl.ID != TemplateIDs[i] {
			t.Fatalf("expected %s at %d, got %s", TemplateIDs[i], i, tpl.ID)
		}
		if tpl.Name == "" || tpl.Description == "" || len(tpl.BestFor) == 0 {
			t.Fatalf("expected metadata for %s, got %+v", tpl.ID, tpl)
		}
		if tpl.Layout != "standard" {
			t.Fatalf("expected standard layout for %s, got %q", tpl.ID, tpl.Layout)
		}
	}
}

func TestParseCatalogueRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown id",
			yaml:    "templates:\n  - id: neon\n    layout: standard\n",
			wantErr: "unknown template id",
		},
		{
			name: "bad colour",
			yaml: "templates:\n  - id: modern-minimal\n    layout: standard\n    theme: {primary: red, accent: \"#000000\", background: \"#000000\", text: \"#000000\"}\n",
			wantErr: "invalid colour",
		},
		{
			name:    "unknown layout",
			yaml:    "templates:\n  - id: modern-minimal\n    layout: fancy\n",
			wantErr: "unknown layout",
		},
		{
			name:    "missing templates",
			yaml:    "templates:\n  - id: modern-minimal\n    layout: standard\n    theme: {primary: \"#000000\", accent: \"#000000\", background: \"#000000\", text: \"#000000\"}\n",
			wantErr: "missing from catalogue",
		},
		{
			name:    "not yaml",
			yaml:    "templates: [",
			wantErr: "yaml",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseCatalogue([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
