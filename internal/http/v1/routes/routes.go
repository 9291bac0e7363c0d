package routes

import (
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/portfolio-builder/internal/http/health"
	"github.com/janisto/portfolio-builder/internal/http/v1/chat"
	"github.com/janisto/portfolio-builder/internal/http/v1/portfolio"
	"github.com/janisto/portfolio-builder/internal/http/v1/templates"
	"github.com/janisto/portfolio-builder/internal/platform/auth"
	chatsvc "github.com/janisto/portfolio-builder/internal/service/chat"
	portfoliosvc "github.com/janisto/portfolio-builder/internal/service/portfolio"
	"github.com/janisto/portfolio-builder/internal/service/publish"
)

// Services groups the collaborators the v1 handlers depend on.
type Services struct {
	Verifier   auth.Verifier
	Assistant  *chatsvc.Assistant
	Sessions   chatsvc.Store
	Portfolios portfoliosvc.Service
	Publisher  publish.Publisher
	// Checks back the readiness probe served next to the API.
	Checks []health.Check
}

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API, svc Services) {
	prefix := apiPrefix(api)

	// Apply auth middleware for protected endpoints
	api.UseMiddleware(auth.NewAuthMiddleware(api, svc.Verifier))

	chat.Register(api, svc.Assistant, svc.Sessions, prefix)
	templates.Register(api)
	portfolio.Register(api, svc.Portfolios, svc.Publisher, prefix)
}

func apiPrefix(api huma.API) string {
	for _, s := range api.OpenAPI().Servers {
		if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return ""
}
