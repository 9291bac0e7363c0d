package portfolio

import (
	"github.com/janisto/portfolio-builder/internal/platform/pagination"
	"github.com/janisto/portfolio-builder/internal/profile"
)

// RenderInput for POST /portfolio/render
type RenderInput struct {
	Body struct {
		Profile    *profile.Profile `json:"profile"              doc:"Profile to render"`
		TemplateID string           `json:"templateId,omitempty" maxLength:"64" doc:"Template identifier; unknown ids use the default" example:"modern-minimal"`
		Separator  *string          `json:"separator,omitempty"  maxLength:"10" doc:"Separator for inline lists" example:", "`
	}
}

// PortfolioCreateInput for POST /portfolios
type PortfolioCreateInput struct {
	Body struct {
		Title      string          `json:"title,omitempty"      maxLength:"200" doc:"Portfolio title; defaults to the profile name" example:"Jane Doe Portfolio"`
		TemplateID string          `json:"templateId,omitempty" maxLength:"64"  doc:"Template identifier"                            example:"creative-bold"`
		Profile    profile.Profile `json:"profile"                              doc:"Profile to render and store"`
	}
}

// PortfolioListInput for GET /portfolios
type PortfolioListInput struct {
	pagination.Params
}

// PortfolioGetInput for GET /portfolios/{id}
type PortfolioGetInput struct {
	ID string `path:"id" maxLength:"128" doc:"Portfolio identifier"`
}

// PortfolioDownloadInput for GET /portfolios/{id}/download
type PortfolioDownloadInput struct {
	ID string `path:"id" maxLength:"128" doc:"Portfolio identifier"`
}

// PortfolioPublishInput for POST /portfolios/{id}/publish
type PortfolioPublishInput struct {
	ID   string `path:"id" maxLength:"128" doc:"Portfolio identifier"`
	Body struct {
		Slug string `json:"slug,omitempty" pattern:"^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$" doc:"Site path; derived from the profile name when omitted" example:"jane-doe"`
	} `required:"false"`
}

// PortfolioAnalyticsInput for GET /portfolios/{id}/analytics
type PortfolioAnalyticsInput struct {
	ID string `path:"id" maxLength:"128" doc:"Portfolio identifier"`
}
