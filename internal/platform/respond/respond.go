// Package respond renders RFC 9457 problem details for responses produced
// outside huma operations: router fallbacks and recovered panics. Bodies
// match the ones huma writes so API clients see a single error shape.
package respond

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2/negotiation"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
)

const (
	contentTypeProblemJSON = "application/problem+json"
	contentTypeProblemCBOR = "application/problem+cbor"
	schemaPath             = "/schemas/ErrorModel.json"

	msgNotFound          = "resource not found"
	msgInternalServerErr = "internal server error"
)

// offered lists the media types a problem can be written as, JSON first so
// it wins ties and is used when nothing matches.
var offered = []string{
	contentTypeProblemJSON,
	"application/json",
	contentTypeProblemCBOR,
	"application/cbor",
}

// probeMethods are tried against the route tree to build the Allow header.
var probeMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// problem mirrors huma.ErrorModel including its $schema link. The CBOR
// encoder reuses the json tags.
type problem struct {
	Schema   string `json:"$schema,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// NotFoundHandler answers unknown paths, inside and outside /v1.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, msgNotFound)
	}
}

// MethodNotAllowedHandler answers 405 with an Allow header listing the
// methods registered for the path.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allow := allowedMethods(r); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
		}
		path := cmp.Or(r.URL.Path, "/")
		writeProblem(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed for %s", r.Method, path))
	}
}

// headerTracker notes whether a response has started.
type headerTracker struct {
	http.ResponseWriter
	started bool
}

func (t *headerTracker) WriteHeader(code int) {
	t.started = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *headerTracker) Write(b []byte) (int, error) {
	t.started = true
	return t.ResponseWriter.Write(b)
}

func (t *headerTracker) Unwrap() http.ResponseWriter { return t.ResponseWriter }

// Recoverer turns panics into 500 problems unless the handler already began
// its response. http.ErrAbortHandler is re-panicked so net/http aborts the
// connection.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &headerTracker{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				applog.LogError(r.Context(), "panic recovered", err,
					zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Stack("stack"))
				if !tw.started {
					writeProblem(tw, r, http.StatusInternalServerError, msgInternalServerErr)
				}
			}()
			next.ServeHTTP(tw, r)
		})
	}
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	schema := schemaURL(r)
	ct, payload, err := encode(r.Header.Get("Accept"), problem{
		Schema: schema,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
	if err != nil {
		applog.LogError(r.Context(), "failed to encode problem", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", ct)
	h.Set("Link", "<"+schema+`>; rel="describedBy"`)
	ensureVary(h, "Origin", "Accept")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		applog.LogWarn(r.Context(), "failed to write problem", zap.Error(err))
	}
}

// encode picks CBOR only when the client ranks a CBOR type above JSON.
func encode(accept string, p problem) (string, []byte, error) {
	if strings.HasSuffix(negotiation.SelectQValueFast(accept, offered), "cbor") {
		b, err := cbor.Marshal(p)
		return contentTypeProblemCBOR, b, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(p)
	return contentTypeProblemJSON, buf.Bytes(), err
}

func schemaURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + schemaPath
}

// ensureVary adds each value to Vary unless an existing entry lists it.
func ensureVary(h http.Header, values ...string) {
	var present []string
	for _, v := range h.Values("Vary") {
		for part := range strings.SplitSeq(v, ",") {
			present = append(present, strings.ToLower(strings.TrimSpace(part)))
		}
	}
	for _, v := range values {
		if key := strings.ToLower(v); !slices.Contains(present, key) {
			present = append(present, key)
			h.Add("Vary", v)
		}
	}
}

func allowedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return nil
	}
	path := cmp.Or(rctx.RoutePath, r.URL.RawPath, r.URL.Path, "/")

	var allowed []string
	for _, method := range probeMethods {
		if rctx.Routes.Match(chi.NewRouteContext(), method, path) {
			allowed = append(allowed, method)
		}
	}
	return allowed
}
