package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/narwhalmedia/fantasycards/internal/catalog/service"
	apperrors "github.com/narwhalmedia/fantasycards/pkg/errors"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
	"github.com/narwhalmedia/fantasycards/pkg/logger"
	"github.com/narwhalmedia/fantasycards/pkg/pagination"
)

// SitemapRenderer produces the sitemap document.
type SitemapRenderer interface {
	Render(ctx context.Context) ([]byte, error)
}

// Handler serves the catalog HTTP API.
type Handler struct {
	catalog   service.Catalog
	sitemap   SitemapRenderer
	cursors   *pagination.CursorEncoder
	cursorTTL time.Duration
	logger    interfaces.Logger
	ready     atomic.Bool
}

// NewHandler creates the API handler. A nil cursor encoder disables page
// tokens; clients then page with the pages parameter only.
func NewHandler(
	catalog service.Catalog,
	sitemap SitemapRenderer,
	cursors *pagination.CursorEncoder,
	cursorTTL time.Duration,
	logger interfaces.Logger,
) *Handler {
	return &Handler{
		catalog:   catalog,
		sitemap:   sitemap,
		cursors:   cursors,
		cursorTTL: cursorTTL,
		logger:    logger,
	}
}

// SetReady flips the readiness probe.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Routes returns the router wrapped in request logging and tracing.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.search)
	mux.HandleFunc("GET /api/v1/authors/{id}", h.author)
	mux.HandleFunc("GET /api/v1/{kind}", h.list)
	mux.HandleFunc("GET /api/v1/{kind}/{id}", h.detail)
	mux.HandleFunc("GET /sitemap.xml", h.sitemapXML)
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /ready", h.readiness)

	return otelhttp.NewHandler(logger.HTTPMiddleware(h.logger)(logger.Recovery(mux)), "catalog-api")
}

type listResponse struct {
	*service.Listing
	NextPageToken string `json:"next_page_token,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r.PathValue("kind"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter, err := parseFilter(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	signature := filter.Signature(kind)
	pages, err := parsePages(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if token := q.Get("page_token"); token != "" {
		if h.cursors == nil {
			h.writeError(w, r, apperrors.BadRequest("page tokens are not enabled"))
			return
		}
		pages, err = pagination.PagesFromToken(h.cursors, token, signature, h.cursorTTL)
		if err != nil {
			h.writeError(w, r, apperrors.Wrap(apperrors.ErrorTypeBadRequest, "invalid page_token", err))
			return
		}
	}

	listing, err := h.catalog.Browse(r.Context(), kind, filter, pages)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := listResponse{Listing: listing}
	if h.cursors != nil {
		resp.NextPageToken, err = pagination.NextPageToken(h.cursors, listing.Pages, signature, listing.HasMore)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r.PathValue("kind"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.catalog.Detail(r.Context(), kind, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

func (h *Handler) author(w http.ResponseWriter, r *http.Request) {
	a, err := h.catalog.Author(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := service.ParseSearchScope(q.Get("type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.catalog.Search(r.Context(), q.Get("q"), scope)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) sitemapXML(w http.ResponseWriter, r *http.Request) {
	if h.sitemap == nil {
		h.writeError(w, r, apperrors.NotFound("sitemap is not configured"))
		return
	}
	body, err := h.sitemap.Render(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(body)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readiness(w http.ResponseWriter, _ *http.Request) {
	if !h.ready.Load() {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "warming"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type errorBody struct {
	Error struct {
		Type    apperrors.ErrorType `json:"type"`
		Message string              `json:"message"`
	} `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.StatusOf(err)
	if errors.Is(err, context.Canceled) {
		// Client went away; nobody reads the body.
		return
	}

	var body errorBody
	body.Error.Type = apperrors.TypeOf(err)
	body.Error.Message = err.Error()
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Request failed", interfaces.Error(err))
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			body.Error.Message = appErr.Message
		} else {
			body.Error.Message = http.StatusText(status)
		}
	}
	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to encode response", interfaces.Error(err))
	}
}
