package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/portfolio-builder/internal/platform/auth"
	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
	appmiddleware "github.com/janisto/portfolio-builder/internal/platform/middleware"
	"github.com/janisto/portfolio-builder/internal/platform/respond"
	"github.com/janisto/portfolio-builder/internal/profile"
	"github.com/janisto/portfolio-builder/internal/render"
	portfoliosvc "github.com/janisto/portfolio-builder/internal/service/portfolio"
	"github.com/janisto/portfolio-builder/internal/service/publish"
)

const sitesURL = "https://sites.example.com"

func newTestRouter(svc portfoliosvc.Service, publisher publish.Publisher, user *auth.User) chi.Router {
	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	api := humachi.New(router, huma.DefaultConfig("PortfolioTest", "test"))
	api.UseMiddleware(auth.NewAuthMiddleware(api, &auth.MockVerifier{User: user}))
	Register(api, svc, publisher, "/v1")
	return router
}

func do(t *testing.T, router http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer valid-token")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func otherUser() *auth.User {
	return &auth.User{UID: "other-user", Email: "other@example.com"}
}

func createPortfolio(t *testing.T, router http.Handler, body string) Portfolio {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/portfolios", body, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[Portfolio](t, rec)
}

func TestRenderJaneEngineerWithoutSkills(t *testing.T) {
	router := newTestRouter(portfoliosvc.NewMemoryStore(), publish.NewMockPublisher(sitesURL), nil)

	rec := do(t, router, http.MethodPost, "/portfolio/render",
		`{"profile":{"name":"Jane","role":"Engineer"},"templateId":"modern-minimal"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := decode[Rendered](t, rec)
	if !strings.Contains(out.HTML, "Jane") || !strings.Contains(out.HTML, "Engineer") {
		t.Fatal("expected name and role in document")
	}
	if strings.Contains(out.HTML, "skill-tag") {
		t.Fatal("expected no skills markup")
	}
	if out.TemplateID != "modern-minimal" {
		t.Fatalf("unexpected template %q", out.TemplateID)
	}
}

func TestRenderUnknownTemplateFallsBack(t *testing.T) {
	router := newTestRouter(portfoliosvc.NewMemoryStore(), publish.NewMockPublisher(sitesURL), nil)

	body := `{"profile":{"name":"Jane","skills":["Go","SQL"]},"templateId":"nope"}`
	rec := do(t, router, http.MethodPost, "/portfolio/render", body, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode[Rendered](t, rec)
	if out.TemplateID != string(render.DefaultTemplate) {
		t.Fatalf("expected default template, got %q", out.TemplateID)
	}

	want, err := render.Render(&profile.Profile{Name: "Jane", Skills: []string{"Go", "SQL"}}, string(render.DefaultTemplate))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.HTML != want {
		t.Fatal("expected fallback output to equal the default template output")
	}
}

func TestRenderSeparator(t *testing.T) {
	router := newTestRouter(portfoliosvc.NewMemoryStore(), publish.NewMockPublisher(sitesURL), nil)

	body := `{"profile":{"name":"Jane","skills":["Go","SQL"]},"separator":" | "}`
	rec := do(t, router, http.MethodPost, "/portfolio/render", body, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if out := decode[Rendered](t, rec); !strings.Contains(out.HTML, "Go | SQL") {
		t.Fatal("expected custom separator in keywords")
	}
}

func TestRenderRequiresProfile(t *testing.T) {
	router := newTestRouter(portfoliosvc.NewMemoryStore(), publish.NewMockPublisher(sitesURL), nil)

	rec := do(t, router, http.MethodPost, "/portfolio/render", `{"templateId":"modern-minimal"}`, false)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestCreateAndGetPortfolio(t *testing.T) {
	store := portfoliosvc.NewMemoryStore()
	router := newTestRouter(store, publish.NewMockPublisher(sitesURL), auth.TestUser())

	created := createPortfolio(t, router,
		`{"templateId":"creative-bold","profile":{"name":"Jane Doe","role":"Engineer","skills":["Go"]}}`)
	if created.Title != "Jane Doe Portfolio" || created.TemplateID != "creative-bold" {
		t.Fatalf("unexpected portfolio %+v", created)
	}
	if !strings.Contains(created.HTML, "Jane Doe") {
		t.Fatal("expected rendered html")
	}

	for want := int64(1); want <= 2; want++ {
		rec := do(t, router, http.MethodGet, "/portfolios/"+created.ID, "", false)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		got := decode[Portfolio](t, rec)
		if got.Views != want || got.LastViewed == nil {
			t.Fatalf("expected %d views with lastViewed, got %+v", want, got)
		}
	}
}

func TestCreateRequiresAuth(t *testing.T) {
	router := newTestRouter(portfoliosvc.NewMemoryStore(), publish.NewMockPublisher(sitesURL), auth.TestUser())

	rec := do(t, router, http.MethodPost, "/portfolios", `{"profile":{"name":"Jane"}}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetMissingPortfolio(t *testing.T) {
	router := newTestRouter(portfoliosvc.NewMemoryStore(), publish.NewMockPublisher(sitesURL), nil)

	rec := do(t, router, http.MethodGet, "/portfolios/missing", "", false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListPortfoliosPaginates(t *testing.T) {
	store := portfoliosvc.NewMemoryStore()
	router := newTestRouter(store, publish.NewMockPublisher(sitesURL), auth.TestUser())

	for range 3 {
		createPortfolio(t, router, `{"profile":{"name":"Jane"}}`)
	}
	if _, err := store.Create(context.Background(), "other-user", portfoliosvc.CreateParams{Title: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := do(t, router, http.MethodGet, "/portfolios?limit=2", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	page := decode[ListData](t, rec)
	if page.Total != 3 || len(page.Items) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Items[0].HTML != "" {
		t.Fatal("expected list items without html")
	}
	link := rec.Header().Get("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, "/v1/portfolios") {
		t.Fatalf("expected next link, got %q", link)
	}

	rec = do(t, router, http.MethodGet, "/portfolios?cursor=not-base64!", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid cursor, got %d", rec.Code)
	}
}

func TestDownloadPortfolio(t *testing.T) {
	router := newTestRouter(portfoliosvc.NewMemoryStore(), publish.NewMockPublisher(sitesURL), auth.TestUser())
	created := createPortfolio(t, router, `{"title":"Jane's Site","profile":{"name":"Jane"}}`)

	rec := do(t, router, http.MethodGet, "/portfolios/"+created.ID+"/download", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=jane-s-site.html" {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if rec.Body.String() != created.HTML {
		t.Fatal("expected stored html as body")
	}
}

func TestPublishPortfolio(t *testing.T) {
	store := portfoliosvc.NewMemoryStore()
	publisher := publish.NewMockPublisher(sitesURL)
	router := newTestRouter(store, publisher, auth.TestUser())
	created := createPortfolio(t, router, `{"profile":{"name":"José Doe"}}`)

	rec := do(t, router, http.MethodPost, "/portfolios/"+created.ID+"/publish", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := decode[Published](t, rec)
	if out.Slug != "jose-doe" || out.URL != sitesURL+"/jose-doe/" {
		t.Fatalf("unexpected publication %+v", out)
	}
	if !out.Portfolio.Published || out.Portfolio.PublishedURL != out.URL {
		t.Fatalf("expected portfolio marked published, got %+v", out.Portfolio)
	}
	if html, ok := publisher.Site("jose-doe"); !ok || html != created.HTML {
		t.Fatal("expected site uploaded")
	}

	// Republishing keeps the slug.
	rec = do(t, router, http.MethodPost, "/portfolios/"+created.ID+"/publish", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if out := decode[Published](t, rec); out.Slug != "jose-doe" {
		t.Fatalf("expected stable slug, got %q", out.Slug)
	}
}

func TestPublishDerivedSlugAvoidsCollision(t *testing.T) {
	store := portfoliosvc.NewMemoryStore()
	router := newTestRouter(store, publish.NewMockPublisher(sitesURL), auth.TestUser())
	first := createPortfolio(t, router, `{"profile":{"name":"Jane"}}`)
	second := createPortfolio(t, router, `{"profile":{"name":"Jane"}}`)

	rec := do(t, router, http.MethodPost, "/portfolios/"+first.ID+"/publish", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPost, "/portfolios/"+second.ID+"/publish", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode[Published](t, rec)
	if out.Slug == "jane" || !strings.HasPrefix(out.Slug, "jane-") || !publish.ValidSlug(out.Slug) {
		t.Fatalf("expected suffixed slug, got %q", out.Slug)
	}
}

func TestPublishCustomSlugConflict(t *testing.T) {
	store := portfoliosvc.NewMemoryStore()
	router := newTestRouter(store, publish.NewMockPublisher(sitesURL), auth.TestUser())
	first := createPortfolio(t, router, `{"profile":{"name":"Jane"}}`)
	second := createPortfolio(t, router, `{"profile":{"name":"Jane"}}`)

	rec := do(t, router, http.MethodPost, "/portfolios/"+first.ID+"/publish", `{"slug":"my-site"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPost, "/portfolios/"+second.ID+"/publish", `{"slug":"my-site"}`, true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPost, "/portfolios/"+second.ID+"/publish", `{"slug":"Not Valid"}`, true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for invalid slug, got %d", rec.Code)
	}
}

func TestPublishRequiresOwner(t *testing.T) {
	store := portfoliosvc.NewMemoryStore()
	owner := newTestRouter(store, publish.NewMockPublisher(sitesURL), auth.TestUser())
	other := newTestRouter(store, publish.NewMockPublisher(sitesURL), otherUser())
	created := createPortfolio(t, owner, `{"profile":{"name":"Jane"}}`)

	rec := do(t, other, http.MethodPost, "/portfolios/"+created.ID+"/publish", "", true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestPublishUploadFailure(t *testing.T) {
	store := portfoliosvc.NewMemoryStore()
	publisher := publish.NewMockPublisher(sitesURL)
	publisher.Err = errors.New("bucket unavailable")
	router := newTestRouter(store, publisher, auth.TestUser())
	created := createPortfolio(t, router, `{"profile":{"name":"Jane"}}`)

	rec := do(t, router, http.MethodPost, "/portfolios/"+created.ID+"/publish", "", true)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	got, err := store.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Published {
		t.Fatal("expected portfolio to stay unpublished")
	}

	publisher.Err = nil
	other := createPortfolio(t, router, `{"profile":{"name":"Someone Else"}}`)
	rec = do(t, router, http.MethodPost, "/portfolios/"+other.ID+"/publish", `{"slug":"jane"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected the failed publish to free its slug, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRepublishUnderNewSlugRetiresOldSite(t *testing.T) {
	store := portfoliosvc.NewMemoryStore()
	publisher := publish.NewMockPublisher(sitesURL)
	router := newTestRouter(store, publisher, auth.TestUser())
	first := createPortfolio(t, router, `{"profile":{"name":"Jane"}}`)
	second := createPortfolio(t, router, `{"profile":{"name":"Jane"}}`)

	rec := do(t, router, http.MethodPost, "/portfolios/"+first.ID+"/publish", `{"slug":"old-site"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPost, "/portfolios/"+first.ID+"/publish", `{"slug":"new-site"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, ok := publisher.Site("old-site"); ok {
		t.Fatal("expected the old site to be removed")
	}
	if _, ok := publisher.Site("new-site"); !ok {
		t.Fatal("expected the new site to be uploaded")
	}

	rec = do(t, router, http.MethodPost, "/portfolios/"+second.ID+"/publish", `{"slug":"old-site"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected the old slug to be free, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodPost, "/portfolios/"+second.ID+"/publish", `{"slug":"new-site"}`, true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected the new slug to stay reserved, got %d", rec.Code)
	}
}

func TestPortfolioAnalytics(t *testing.T) {
	store := portfoliosvc.NewMemoryStore()
	owner := newTestRouter(store, publish.NewMockPublisher(sitesURL), auth.TestUser())
	other := newTestRouter(store, publish.NewMockPublisher(sitesURL), otherUser())
	created := createPortfolio(t, owner, `{"profile":{"name":"Jane"}}`)

	for range 10 {
		if _, err := store.RecordView(context.Background(), created.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	rec := do(t, owner, http.MethodGet, "/portfolios/"+created.ID+"/analytics", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode[Analytics](t, rec)
	if out.TotalViews != 10 || out.TopSections[0].Name != "Projects" || out.TopSections[0].Views != 3 {
		t.Fatalf("unexpected dashboard %+v", out)
	}
	if len(out.ViewsByDay.Labels) != 7 || len(out.ViewsByDay.Data) != 7 {
		t.Fatalf("expected weekly series, got %+v", out.ViewsByDay)
	}

	rec = do(t, other, http.MethodGet, "/portfolios/"+created.ID+"/analytics", "", true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
