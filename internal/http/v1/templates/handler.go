package templates

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/portfolio-builder/internal/render"
)

// Register registers template catalogue endpoints.
func Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-templates",
		Method:      http.MethodGet,
		Path:        "/templates",
		Summary:     "List portfolio templates",
		Tags:        []string{"Templates"},
	}, func(_ context.Context, _ *TemplateListInput) (*TemplateListOutput, error) {
		catalogue := render.Catalogue()
		out := make([]Template, 0, len(catalogue))
		for _, t := range catalogue {
			out = append(out, toHTTPTemplate(t))
		}
		return &TemplateListOutput{Body: ListData{Templates: out}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-template",
		Method:      http.MethodGet,
		Path:        "/templates/{templateId}",
		Summary:     "Get a portfolio template",
		Description: "Returns one catalogue entry. Unknown ids are not resolved to the default template.",
		Tags:        []string{"Templates"},
	}, func(_ context.Context, input *TemplateGetInput) (*TemplateGetOutput, error) {
		t, ok := render.Lookup(input.TemplateID)
		if !ok {
			return nil, huma.Error404NotFound("template not found")
		}
		return &TemplateGetOutput{Body: toHTTPTemplate(t)}, nil
	})
}

func toHTTPTemplate(t render.Template) Template {
	return Template{
		ID:          string(t.ID),
		Name:        t.Name,
		Description: t.Description,
		Thumbnail:   t.Thumbnail,
		BestFor:     slices.Clone(t.BestFor),
		Theme: Theme{
			Primary:    t.Theme.Primary,
			Accent:     t.Theme.Accent,
			Background: t.Theme.Background,
			Text:       t.Theme.Text,
		},
	}
}
