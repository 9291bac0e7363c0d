package portfolio

import (
	"github.com/janisto/portfolio-builder/internal/platform/timeutil"
	"github.com/janisto/portfolio-builder/internal/profile"
)

// Portfolio represents a stored portfolio response.
type Portfolio struct {
	ID           string          `json:"id"                     doc:"Portfolio identifier"                   example:"b6Jm2v0kTqQ7cQ3yZ1aR"`
	Title        string          `json:"title"                  doc:"Portfolio title"                        example:"Jane Doe Portfolio"`
	TemplateID   string          `json:"templateId"             doc:"Template used for rendering"            example:"modern-minimal"`
	Profile      profile.Profile `json:"profile"                doc:"Profile the page was rendered from"`
	HTML         string          `json:"html,omitempty"         doc:"Rendered document"`
	Slug         string          `json:"slug,omitempty"         doc:"Published site path"                    example:"jane-doe"`
	PublishedURL string          `json:"publishedUrl,omitempty" doc:"Public URL of the published site"       example:"https://sites.example.com/jane-doe/"`
	Published    bool            `json:"published"              doc:"Whether the site has been published"    example:"false"`
	Views        int64           `json:"views"                  doc:"Number of times the portfolio was read" example:"42"`
	LastViewed   *timeutil.Time  `json:"lastViewed,omitempty"   doc:"Most recent view"                       example:"2024-01-15T10:30:00.000Z"`
	CreatedAt    timeutil.Time   `json:"createdAt"              doc:"Creation timestamp"                     example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt    timeutil.Time   `json:"updatedAt"              doc:"Last update timestamp"                  example:"2024-01-15T10:30:00.000Z"`
}

// Rendered is the output of an ad-hoc render.
type Rendered struct {
	HTML       string `json:"html"       doc:"Rendered document"`
	TemplateID string `json:"templateId" doc:"Template actually used; unknown ids resolve to the default" example:"modern-minimal"`
}

// Published is the outcome of publishing a portfolio.
type Published struct {
	URL       string    `json:"url"       doc:"Public URL of the site" example:"https://sites.example.com/jane-doe/"`
	Slug      string    `json:"slug"      doc:"Site path"              example:"jane-doe"`
	Portfolio Portfolio `json:"portfolio" doc:"Updated portfolio"`
}

// SectionViews is the estimated traffic of a page section.
type SectionViews struct {
	Name  string `json:"name"  doc:"Section name"    example:"Projects"`
	Views int64  `json:"views" doc:"Estimated views" example:"14"`
}

// LocationViews is the estimated traffic from a country.
type LocationViews struct {
	Country string `json:"country" doc:"Country name"    example:"Canada"`
	Views   int64  `json:"views"   doc:"Estimated views" example:"6"`
}

// DailyViews is the weekly traffic series.
type DailyViews struct {
	Labels []string `json:"labels" doc:"Day labels"`
	Data   []int64  `json:"data"   doc:"Views per day"`
}

// Analytics is the portfolio dashboard.
type Analytics struct {
	TotalViews    int64           `json:"totalViews"    doc:"Total recorded views" example:"40"`
	AvgTimeOnPage string          `json:"avgTimeOnPage" doc:"Average time on page (m:ss)" example:"2:34"`
	TopSections   []SectionViews  `json:"topSections"   doc:"Most viewed sections"`
	ViewsByDay    DailyViews      `json:"viewsByDay"    doc:"Views over the last week"`
	TopLocations  []LocationViews `json:"topLocations"  doc:"Top visitor countries"`
}
