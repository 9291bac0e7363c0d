package portfolio

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/portfolio-builder/internal/platform/auth"
	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
	"github.com/janisto/portfolio-builder/internal/platform/pagination"
	"github.com/janisto/portfolio-builder/internal/platform/timeutil"
	"github.com/janisto/portfolio-builder/internal/profile"
	"github.com/janisto/portfolio-builder/internal/render"
	"github.com/janisto/portfolio-builder/internal/service/analytics"
	portfoliosvc "github.com/janisto/portfolio-builder/internal/service/portfolio"
	"github.com/janisto/portfolio-builder/internal/service/publish"
)

const cursorKind = "portfolio"

var bearerAuth = []map[string][]string{
	{"bearerAuth": {}},
}

// Register registers rendering and portfolio endpoints.
func Register(api huma.API, svc portfoliosvc.Service, publisher publish.Publisher, prefix string) {
	huma.Register(api, huma.Operation{
		OperationID: "render-portfolio",
		Method:      http.MethodPost,
		Path:        "/portfolio/render",
		Summary:     "Render a portfolio",
		Description: "Renders a profile into a self-contained HTML document. Unknown template ids use the default template.",
		Tags:        []string{"Portfolio"},
	}, func(ctx context.Context, input *RenderInput) (*RenderOutput, error) {
		var opts []render.Option
		if input.Body.Separator != nil {
			opts = append(opts, render.WithSeparator(*input.Body.Separator))
		}

		var p *profile.Profile
		if input.Body.Profile != nil {
			normalized := profile.Normalize(*input.Body.Profile)
			p = &normalized
		}
		html, err := render.Render(p, input.Body.TemplateID, opts...)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &RenderOutput{Body: Rendered{
			HTML:       html,
			TemplateID: string(render.Resolve(input.Body.TemplateID).ID),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-portfolio",
		Method:        http.MethodPost,
		Path:          "/portfolios",
		Summary:       "Save a portfolio",
		Description:   "Renders the profile with the chosen template and stores the result for the authenticated user.",
		Tags:          []string{"Portfolio"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerAuth,
	}, func(ctx context.Context, input *PortfolioCreateInput) (*PortfolioCreateOutput, error) {
		user := auth.UserFromContext(ctx)

		p := profile.Normalize(input.Body.Profile)
		tpl := render.Resolve(input.Body.TemplateID)
		html, err := render.Render(&p, string(tpl.ID))
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}

		created, err := svc.Create(ctx, user.UID, portfoliosvc.CreateParams{
			Title:      defaultTitle(input.Body.Title, p),
			TemplateID: string(tpl.ID),
			Profile:    p,
			HTML:       html,
		})
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &PortfolioCreateOutput{
			Location: prefix + "/portfolios/" + created.ID,
			Body:     toHTTPPortfolio(created, true),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-portfolios",
		Method:      http.MethodGet,
		Path:        "/portfolios",
		Summary:     "List the user's portfolios",
		Description: "Returns the authenticated user's portfolios, newest first. Use the cursor from the Link header to navigate between pages.",
		Tags:        []string{"Portfolio"},
		Security:    bearerAuth,
	}, func(ctx context.Context, input *PortfolioListInput) (*PortfolioListOutput, error) {
		user := auth.UserFromContext(ctx)

		cursor, err := pagination.Decode(input.Cursor, cursorKind)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		all, err := svc.ListByUser(ctx, user.UID)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		page, err := pagination.Window(all, cursor, input.PageSize(), func(p portfoliosvc.Portfolio) string {
			return p.ID
		})
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		items := make([]Portfolio, 0, len(page.Items))
		for i := range page.Items {
			items = append(items, toHTTPPortfolio(&page.Items[i], false))
		}
		return &PortfolioListOutput{
			Link: page.Link(prefix+"/portfolios", nil),
			Body: ListData{Items: items, Total: page.Total},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-portfolio",
		Method:      http.MethodGet,
		Path:        "/portfolios/{id}",
		Summary:     "View a portfolio",
		Description: "Returns a portfolio with its rendered document and records a view.",
		Tags:        []string{"Portfolio"},
	}, func(ctx context.Context, input *PortfolioGetInput) (*PortfolioGetOutput, error) {
		ctx = applog.WithFields(ctx, zap.String("portfolioId", input.ID))
		p, err := svc.RecordView(ctx, input.ID)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &PortfolioGetOutput{Body: toHTTPPortfolio(p, true)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "download-portfolio",
		Method:      http.MethodGet,
		Path:        "/portfolios/{id}/download",
		Summary:     "Download a portfolio",
		Description: "Returns the rendered document as an HTML attachment.",
		Tags:        []string{"Portfolio"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Rendered HTML document",
				Content:     map[string]*huma.MediaType{"text/html": {}},
			},
		},
	}, func(ctx context.Context, input *PortfolioDownloadInput) (*PortfolioDownloadOutput, error) {
		ctx = applog.WithFields(ctx, zap.String("portfolioId", input.ID))
		p, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &PortfolioDownloadOutput{
			ContentType:        "text/html; charset=utf-8",
			ContentDisposition: mime.FormatMediaType("attachment", map[string]string{"filename": downloadName(p)}),
			Body:               []byte(p.HTML),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "publish-portfolio",
		Method:      http.MethodPost,
		Path:        "/portfolios/{id}/publish",
		Summary:     "Publish a portfolio",
		Description: "Uploads the rendered document to the public site host. Only the owner may publish.",
		Tags:        []string{"Portfolio"},
		Security:    bearerAuth,
	}, func(ctx context.Context, input *PortfolioPublishInput) (*PortfolioPublishOutput, error) {
		ctx = applog.WithFields(ctx, zap.String("portfolioId", input.ID))
		user := auth.UserFromContext(ctx)

		p, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		if p.UserID != user.UID {
			return nil, mapServiceError(ctx, portfoliosvc.ErrNotOwner)
		}

		slug, err := reserveSlug(ctx, svc, p, user.UID, input.Body.Slug)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}

		fresh := slug != p.Slug

		publicURL, err := publisher.Publish(ctx, slug, p.HTML)
		if err != nil {
			if fresh {
				retireSlug(ctx, svc, publisher, p.ID, user.UID, slug)
			}
			return nil, mapServiceError(ctx, err)
		}

		updated, err := svc.MarkPublished(ctx, p.ID, user.UID, slug, publicURL)
		if err != nil {
			if fresh {
				retireSlug(ctx, svc, publisher, p.ID, user.UID, slug)
			}
			return nil, mapServiceError(ctx, err)
		}
		if fresh && p.Slug != "" {
			retireSlug(ctx, svc, publisher, p.ID, user.UID, p.Slug)
		}
		return &PortfolioPublishOutput{Body: Published{
			URL:       publicURL,
			Slug:      slug,
			Portfolio: toHTTPPortfolio(updated, false),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-portfolio-analytics",
		Method:      http.MethodGet,
		Path:        "/portfolios/{id}/analytics",
		Summary:     "Get portfolio analytics",
		Description: "Returns the traffic dashboard of a portfolio. Only the owner may read it.",
		Tags:        []string{"Portfolio"},
		Security:    bearerAuth,
	}, func(ctx context.Context, input *PortfolioAnalyticsInput) (*PortfolioAnalyticsOutput, error) {
		ctx = applog.WithFields(ctx, zap.String("portfolioId", input.ID))
		user := auth.UserFromContext(ctx)

		p, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		if p.UserID != user.UID {
			return nil, mapServiceError(ctx, portfoliosvc.ErrNotOwner)
		}
		return &PortfolioAnalyticsOutput{Body: toHTTPAnalytics(analytics.Build(p.ID, p.Views))}, nil
	})
}

// retireSlug removes the site under slug and frees its reservation. The
// publish outcome is already decided, so failures are only logged.
func retireSlug(ctx context.Context, svc portfoliosvc.Service, publisher publish.Publisher, id, userID, slug string) {
	ctx = context.WithoutCancel(ctx)
	if err := publisher.Unpublish(ctx, slug); err != nil {
		applog.LogWarn(ctx, "failed to remove site", zap.String("slug", slug), zap.Error(err))
	}
	if err := svc.ReleaseSlug(ctx, id, userID, slug); err != nil {
		applog.LogWarn(ctx, "failed to release slug", zap.String("slug", slug), zap.Error(err))
	}
}

// reserveSlug claims the requested slug, or the first free slug derived
// from the profile name and portfolio id.
func reserveSlug(ctx context.Context, svc portfoliosvc.Service, p *portfoliosvc.Portfolio, userID, requested string) (string, error) {
	if requested != "" {
		return requested, svc.ReserveSlug(ctx, p.ID, userID, requested)
	}
	if p.Slug != "" {
		return p.Slug, svc.ReserveSlug(ctx, p.ID, userID, p.Slug)
	}

	idSlug := publish.Slugify(p.ID)
	var candidates []string
	if name := publish.Slugify(p.Profile.Name); name != "" {
		candidates = append(candidates, name)
		if suffix := shortID(idSlug); suffix != "" {
			candidates = append(candidates, withSuffix(name, suffix))
		}
	}
	candidates = append(candidates, idSlug)

	var err error
	for _, slug := range candidates {
		if !publish.ValidSlug(slug) {
			continue
		}
		err = svc.ReserveSlug(ctx, p.ID, userID, slug)
		if err == nil {
			return slug, nil
		}
		if !errors.Is(err, portfoliosvc.ErrSlugTaken) {
			return "", err
		}
	}
	if err == nil {
		err = fmt.Errorf("no usable slug for portfolio %s", p.ID)
	}
	return "", err
}

func shortID(idSlug string) string {
	if len(idSlug) > 8 {
		idSlug = idSlug[:8]
	}
	return strings.Trim(idSlug, "-")
}

func withSuffix(slug, suffix string) string {
	const maxLen = 63
	if keep := maxLen - len(suffix) - 1; len(slug) > keep {
		slug = strings.TrimRight(slug[:keep], "-")
	}
	return slug + "-" + suffix
}

func defaultTitle(title string, p profile.Profile) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if p.Name != "" {
		return p.Name + " Portfolio"
	}
	return "Portfolio"
}

func downloadName(p *portfoliosvc.Portfolio) string {
	base := publish.Slugify(p.Title)
	if base == "" {
		base = "portfolio"
	}
	return base + ".html"
}

func mapServiceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, render.ErrMissingProfile):
		return huma.Error422UnprocessableEntity("profile is required")
	case errors.Is(err, portfoliosvc.ErrNotFound):
		return huma.Error404NotFound("portfolio not found")
	case errors.Is(err, portfoliosvc.ErrNotOwner):
		return huma.Error403Forbidden("portfolio belongs to another user")
	case errors.Is(err, portfoliosvc.ErrSlugTaken):
		return huma.Error409Conflict("slug already in use")
	case errors.Is(err, publish.ErrPublishFailed):
		applog.LogError(ctx, "portfolio publish failed", err)
		return huma.Error502BadGateway("failed to publish portfolio")
	default:
		var renderErr *render.RenderError
		if errors.As(err, &renderErr) {
			applog.LogError(ctx, "portfolio render failed", err,
				zap.String("template", string(renderErr.TemplateID)))
			return huma.Error422UnprocessableEntity("portfolio could not be rendered")
		}
		applog.LogError(ctx, "portfolio request failed", err)
		return huma.Error500InternalServerError("internal error")
	}
}

func toHTTPPortfolio(p *portfoliosvc.Portfolio, withHTML bool) Portfolio {
	out := Portfolio{
		ID:           p.ID,
		Title:        p.Title,
		TemplateID:   p.TemplateID,
		Profile:      p.Profile,
		Slug:         p.Slug,
		PublishedURL: p.PublishedURL,
		Published:    p.Published,
		Views:        p.Views,
		LastViewed:   timeutil.Optional(p.LastViewed),
		CreatedAt:    timeutil.NewTime(p.CreatedAt),
		UpdatedAt:    timeutil.NewTime(p.UpdatedAt),
	}
	if withHTML {
		out.HTML = p.HTML
	}
	return out
}

func toHTTPAnalytics(d analytics.Dashboard) Analytics {
	sections := make([]SectionViews, 0, len(d.TopSections))
	for _, s := range d.TopSections {
		sections = append(sections, SectionViews{Name: s.Name, Views: s.Views})
	}
	locations := make([]LocationViews, 0, len(d.TopLocations))
	for _, l := range d.TopLocations {
		locations = append(locations, LocationViews{Country: l.Country, Views: l.Views})
	}
	return Analytics{
		TotalViews:    d.TotalViews,
		AvgTimeOnPage: d.AvgTimeOnPage,
		TopSections:   sections,
		ViewsByDay:    DailyViews{Labels: slices.Clone(d.DayLabels), Data: slices.Clone(d.ViewsByDay)},
		TopLocations:  locations,
	}
}
