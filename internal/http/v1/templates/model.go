package templates

// Theme is the colour scheme of a template.
type Theme struct {
	Primary    string `json:"primary"    doc:"Primary colour"    example:"#2563eb"`
	Accent     string `json:"accent"     doc:"Accent colour"     example:"#f59e0b"`
	Background string `json:"background" doc:"Background colour" example:"#ffffff"`
	Text       string `json:"text"       doc:"Text colour"       example:"#111827"`
}

// Template represents a catalogue entry.
type Template struct {
	ID          string   `json:"id"          doc:"Template identifier" example:"modern-minimal"`
	Name        string   `json:"name"        doc:"Display name"        example:"Modern Minimal"`
	Description string   `json:"description" doc:"Short description"`
	Thumbnail   string   `json:"thumbnail"   doc:"Preview image path"`
	BestFor     []string `json:"bestFor"     doc:"Professions the template suits"`
	Theme       Theme    `json:"theme"       doc:"Colour scheme"`
}
