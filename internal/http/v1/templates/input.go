package templates

// TemplateListInput for GET /templates (no parameters)
type TemplateListInput struct{}

// TemplateGetInput for GET /templates/{templateId}
type TemplateGetInput struct {
	TemplateID string `path:"templateId" maxLength:"64" doc:"Template identifier" example:"modern-minimal"`
}
