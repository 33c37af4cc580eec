package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kelarsco/sneaklink-sub001/internal/canonical"
	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
	"github.com/kelarsco/sneaklink-sub001/internal/config"
	"github.com/kelarsco/sneaklink-sub001/internal/metrics"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	maxBatchSize    = 1000
)

// Server wires HTTP handlers to the repository and the candidate queue.
type Server struct {
	router chi.Router
	repo   catalog.StoreRepository
	queue  catalog.Queue
	clock  catalog.Clock
	cfg    config.Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The admin
// surface (full listing, block/unblock) sits behind the API key when auth
// is enabled; submission and the visible listing stay public.
func NewServer(
	repo catalog.StoreRepository,
	queue catalog.Queue,
	clock catalog.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		repo:   repo,
		queue:  queue,
		clock:  clock,
		cfg:    cfg,
		logger: logger.Named("api"),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/candidates", s.submitCandidates)
		r.Route("/stores", func(r chi.Router) {
			r.Get("/", s.listVisibleStores)
			r.Group(func(r chi.Router) {
				if cfg.Auth.Enabled {
					r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
				}
				r.Get("/all", s.listAllStores)
				r.Route("/{host}", func(r chi.Router) {
					r.Get("/", s.getStore)
					r.Post("/block", s.blockStore)
					r.Post("/unblock", s.unblockStore)
				})
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.FilterKnown(r.Context(), nil); err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type candidateRequest struct {
	URLs   []string `json:"urls"`
	URL    string   `json:"url"`
	Source string   `json:"source"`
}

type candidateResponse struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// submitCandidates enqueues a batch of discovered URLs. Invalid URLs are
// counted but never fail the batch; processing is asynchronous.
func (s *Server) submitCandidates(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	urls := req.URLs
	if req.URL != "" {
		urls = append(urls, req.URL)
	}
	if len(urls) == 0 {
		writeError(w, http.StatusBadRequest, "urls required")
		return
	}
	if len(urls) > maxBatchSize {
		writeError(w, http.StatusRequestEntityTooLarge, "too many urls in one batch")
		return
	}
	source := req.Source
	if source == "" {
		source = "api"
	}

	var resp candidateResponse
	for _, raw := range urls {
		if _, err := canonical.Canonicalize(raw); err != nil {
			resp.Rejected++
			continue
		}
		queueCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		err := s.queue.Enqueue(queueCtx, catalog.Candidate{RawURL: raw, Source: source})
		cancel()
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "queue full")
			return
		}
		resp.Accepted++
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) listVisibleStores(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	records, err := s.repo.ListVisible(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("visible listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stores": records, "count": len(records)})
}

func (s *Server) listAllStores(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	records, err := s.repo.ListAll(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("full listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stores": records, "count": len(records)})
}

func (s *Server) getStore(w http.ResponseWriter, r *http.Request) {
	record, ok := s.lookupStore(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) blockStore(w http.ResponseWriter, r *http.Request) {
	record, ok := s.lookupStore(w, r)
	if !ok {
		return
	}
	record.Block(s.clock.Now())
	if err := s.repo.Upsert(r.Context(), record); err != nil {
		s.logger.Error("block persist failed", zap.String("url", record.CanonicalURL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "persist failed")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) unblockStore(w http.ResponseWriter, r *http.Request) {
	record, ok := s.lookupStore(w, r)
	if !ok {
		return
	}
	record.Unblock(s.clock.Now())
	if err := s.repo.Upsert(r.Context(), record); err != nil {
		s.logger.Error("unblock persist failed", zap.String("url", record.CanonicalURL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "persist failed")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// lookupStore resolves the {host} path parameter to a record. The parameter
// accepts a bare host or a full URL; both canonicalize to the record key.
func (s *Server) lookupStore(w http.ResponseWriter, r *http.Request) (catalog.StoreRecord, bool) {
	host := chi.URLParam(r, "host")
	canonicalURL, err := canonical.Canonicalize(host)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid store host")
		return catalog.StoreRecord{}, false
	}
	record, err := s.repo.Get(r.Context(), canonicalURL)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "store not found")
		} else {
			s.logger.Error("store lookup failed", zap.String("url", canonicalURL), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "lookup failed")
		}
		return catalog.StoreRecord{}, false
	}
	return record, true
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			offset = v
		}
	}
	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
