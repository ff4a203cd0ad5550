package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"creators/internal/canonical"
	"creators/internal/logging"
	"creators/internal/metrics"
	"creators/internal/observation"
	"creators/internal/pipeline"
	"creators/internal/services"
)

// maxBodyBytes bounds recompute request bodies.
const maxBodyBytes = 1 << 20

// Service is the subset of the pipeline runner the HTTP layer needs.
type Service interface {
	Names() []string
	Update(ctx context.Context) (*canonical.Table, error)
	Variants(name string) ([]string, error)
	NamesForScope(ctx context.Context, scope string) ([]string, error)
	PossibleDups(ctx context.Context) ([]string, error)
	FlushPossibleDups(ctx context.Context) (int, error)
	Orphans(ctx context.Context) ([]pipeline.Orphan, error)
	FlushOrphans(ctx context.Context) ([]string, error)
	Recompute(ctx context.Context, changes pipeline.Changes) (*canonical.Table, error)
	Status(ctx context.Context) (pipeline.Status, error)
}

// Handler serves the creators routes.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
	token   string
}

// Option configures a Handler.
type Option func(*Handler)

// WithToken requires a bearer token on the POST routes.
func WithToken(token string) Option {
	return func(h *Handler) { h.token = token }
}

// New builds a handler. A nil logger discards output; nil metrics are not
// recorded.
func New(service Service, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  logging.NewComponentLogger(logger, "api"),
		metrics: m,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes and their middleware on r.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.recoverer, h.requestID, h.instrument)

		r.Route("/creators", func(r chi.Router) {
			r.Get("/names", h.handleNames)
			r.Get("/name_variants/{name}", h.handleVariants)
			r.Get("/names_for_scope/{scope}", h.handleNamesForScope)
			r.Get("/possible_dups", h.handlePossibleDups)
			r.Get("/orphans", h.handleOrphans)

			r.With(requireToken(h.token)).Group(func(r chi.Router) {
				r.Post("/names", h.handleUpdate)
				r.Post("/possible_dups", h.handleFlushPossibleDups)
				r.Post("/orphans", h.handleFlushOrphans)
				r.Post("/recompute", h.handleRecompute)
			})
		})
		r.Get("/api/status", h.handleStatus)
	})
}

func (h *Handler) handleNames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.service.Names()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Update(r.Context())
	if err != nil {
		h.fail(w, r, "update failed", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(table.Names()))
}

func (h *Handler) handleVariants(w http.ResponseWriter, r *http.Request) {
	variants, err := h.service.Variants(pathParam(r, "name"))
	if err != nil {
		h.fail(w, r, "variants lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(variants))
}

func (h *Handler) handleNamesForScope(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.NamesForScope(r.Context(), pathParam(r, "scope"))
	if err != nil {
		h.fail(w, r, "scope lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(names))
}

func (h *Handler) handlePossibleDups(w http.ResponseWriter, r *http.Request) {
	dups, err := h.service.PossibleDups(r.Context())
	if err != nil {
		h.fail(w, r, "possible duplicates failed", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(dups))
}

func (h *Handler) handleFlushPossibleDups(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.FlushPossibleDups(r.Context())
	if err != nil {
		h.fail(w, r, "flush possible duplicates failed", err)
		return
	}
	writeJSON(w, http.StatusOK, FlushResponse{Message: "Flush completed", Removed: removed})
}

func (h *Handler) handleOrphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := h.service.Orphans(r.Context())
	if err != nil {
		h.fail(w, r, "orphan listing failed", err)
		return
	}
	writeJSON(w, http.StatusOK, FromOrphans(orphans))
}

func (h *Handler) handleFlushOrphans(w http.ResponseWriter, r *http.Request) {
	flushed, err := h.service.FlushOrphans(r.Context())
	if err != nil {
		h.fail(w, r, "orphan flush failed", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(flushed))
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	changes, err := decodeChanges(r)
	if err != nil {
		h.fail(w, r, "invalid recompute request", err)
		return
	}
	table, err := h.service.Recompute(r.Context(), changes)
	if err != nil {
		h.fail(w, r, "recompute failed", err)
		return
	}
	writeJSON(w, http.StatusOK, RecomputeResponse{Names: table.Len()})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.fail(w, r, "status failed", err)
		return
	}
	writeJSON(w, http.StatusOK, FromStatus(status))
}

// pathParam returns the decoded value of a route parameter. chi hands back
// the raw segment when the request carried escapes such as %2C.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// decodeChanges reads an optional RecomputeRequest. An empty body means
// "rebuild from what is stored".
func decodeChanges(r *http.Request) (pipeline.Changes, error) {
	var req RecomputeRequest
	body := io.LimitReader(r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return pipeline.Changes{}, services.Wrap(services.ErrValidation, "api", "decode recompute", "malformed JSON body", err)
	}
	added, err := parseIDs(req.Added)
	if err != nil {
		return pipeline.Changes{}, err
	}
	removed, err := parseIDs(req.Removed)
	if err != nil {
		return pipeline.Changes{}, err
	}
	return pipeline.Changes{Added: added, Removed: removed}, nil
}

func parseIDs(raw []string) ([]observation.PackageID, error) {
	out := make([]observation.PackageID, 0, len(raw))
	for _, s := range raw {
		pid, err := observation.ParsePackageID(s)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "api", "parse package id", "", err)
		}
		out = append(out, pid)
	}
	return out, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := services.HTTPStatus(err)
	logger := logging.WithContext(r.Context(), h.logger)
	attrs := []logging.Attr{
		logging.String("path", r.URL.Path),
		logging.Int("status", status),
		logging.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, msg, "api_error", attrs...)
	} else {
		logger.Debug(msg, logging.Args(attrs...)...)
	}
	writeError(w, status, errorMessage(err))
}

// errorMessage strips the marker prefix so clients see the detail only.
func errorMessage(err error) string {
	msg := err.Error()
	for _, marker := range []error{
		services.ErrValidation, services.ErrNotFound, services.ErrBusy,
		services.ErrExternal, services.ErrTransient, services.ErrConfiguration,
	} {
		if prefix := marker.Error() + ": "; strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_, _ = fmt.Fprintf(w, "{\"error\":%q}\n", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
