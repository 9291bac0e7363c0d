package templates

// ListData is the catalogue response body.
type ListData struct {
	Templates []Template `json:"templates" doc:"Available templates in display order"`
}

// TemplateListOutput for GET /templates
type TemplateListOutput struct {
	Body ListData
}

// TemplateGetOutput for GET /templates/{templateId}
type TemplateGetOutput struct {
	Body Template
}
