package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"faithatlas/internal/content"
	"faithatlas/internal/render"
	"faithatlas/internal/store"
	"faithatlas/internal/tools/constellation"
)

const (
	maxQueryLength = 128
	searchLimit    = 20
)

// Server wires handlers, the renderer and the page store together.
type Server struct {
	store    store.Store
	renderer *render.Renderer
	logger   *zap.Logger
	mux      *http.ServeMux

	renderGroup singleflight.Group
	mu          sync.RWMutex
	cache       map[string][]byte
	// generation is bumped by Invalidate; renders started under an older
	// generation are not cached.
	generation uint64
}

// NewServer constructs an HTTP handler ready to serve reference pages.
func NewServer(st store.Store, renderer *render.Renderer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &Server{
		store:    st,
		renderer: renderer,
		logger:   logger,
		mux:      http.NewServeMux(),
		cache:    make(map[string][]byte),
	}

	srv.mux.HandleFunc("/", srv.handlePage)
	srv.mux.HandleFunc("/search", srv.handleSearch)
	srv.mux.HandleFunc("/random", srv.handleRandomPage)
	srv.mux.HandleFunc("/constellation.json", srv.handleConstellation)
	srv.mux.HandleFunc("/healthz", srv.handleHealth)

	return srv
}

// ServeHTTP satisfies http.Handler. Requests under the renderer's base path
// are served with the prefix removed; requests without it are served as is,
// for proxies that strip the prefix themselves.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if base := s.renderer.BasePath(); base != "" {
		if rest, ok := strings.CutPrefix(r.URL.Path, base); ok && (rest == "" || strings.HasPrefix(rest, "/")) {
			if rest == "" {
				rest = "/"
			}
			r = r.Clone(r.Context())
			r.URL.Path = rest
			r.URL.RawPath = ""
		}
	}
	s.mux.ServeHTTP(w, r)
}

// Invalidate drops every cached rendering, for use after a content reload.
func (s *Server) Invalidate() {
	s.mu.Lock()
	s.generation++
	s.cache = make(map[string][]byte)
	s.mu.Unlock()
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path == "/" {
		s.handleIndex(w, r)
		return
	}

	raw := strings.Trim(r.URL.Path, "/")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		http.Error(w, "bad slug", http.StatusBadRequest)
		return
	}

	slug, err := content.NormalizeSlug(decoded)
	if err != nil {
		s.notFound(w, r, decoded)
		return
	}
	if slug != raw {
		http.Redirect(w, r, s.renderer.URL("/"+slug), http.StatusMovedPermanently)
		return
	}

	body, err := s.renderPage(r.Context(), slug)
	if errors.Is(err, store.ErrNotFound) {
		s.notFound(w, r, slug)
		return
	}
	if err != nil {
		s.logger.Error("render page", zap.String("slug", slug), zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	writeHTML(w, http.StatusOK, body)
}

// renderPage returns the cached document for slug, rendering it at most once
// even under concurrent requests.
func (s *Server) renderPage(ctx context.Context, slug string) ([]byte, error) {
	s.mu.RLock()
	body, ok := s.cache[slug]
	generation := s.generation
	s.mu.RUnlock()
	if ok {
		return body, nil
	}

	key := strconv.FormatUint(generation, 10) + "/" + slug
	result, err, _ := s.renderGroup.Do(key, func() (interface{}, error) {
		page, err := s.store.Get(ctx, slug)
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := s.renderer.RenderPage(&buf, page, s.pageCount(ctx)); err != nil {
			return nil, err
		}

		out := buf.Bytes()
		s.mu.Lock()
		if s.generation == generation {
			s.cache[slug] = out
		}
		s.mu.Unlock()
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	body, ok = result.([]byte)
	if !ok {
		return nil, errors.New("render result type mismatch")
	}
	return body, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pages, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("list pages", zap.Error(err))
		http.Error(w, "failed to load pages", http.StatusInternalServerError)
		return
	}

	catalog, err := content.NewCatalog(pages)
	if err != nil {
		s.logger.Error("index catalog", zap.Error(err))
		http.Error(w, "failed to load pages", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.RenderIndex(&buf, catalog.Categories(), catalog.Len()); err != nil {
		s.logger.Error("render index", zap.Error(err))
		http.Error(w, "failed to render index", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.FormValue("q"))
	if query == "" {
		http.Redirect(w, r, s.renderer.URL("/"), http.StatusFound)
		return
	}

	if len(query) > maxQueryLength {
		query = truncateUTF8(query, maxQueryLength)
	}

	ctx := r.Context()
	results, err := s.store.Search(ctx, query, searchLimit)
	if err != nil {
		s.logger.Error("search", zap.String("query", query), zap.Error(err))
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.RenderSearch(&buf, query, results, s.pageCount(ctx)); err != nil {
		s.logger.Error("render search", zap.Error(err))
		http.Error(w, "failed to render search", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

func (s *Server) handleRandomPage(w http.ResponseWriter, r *http.Request) {
	slug, err := s.store.Random(r.Context())
	if err != nil {
		s.logger.Error("random slug", zap.Error(err))
		http.Error(w, "failed to load random page", http.StatusInternalServerError)
		return
	}
	if slug == "" {
		http.Redirect(w, r, s.renderer.URL("/"), http.StatusFound)
		return
	}
	http.Redirect(w, r, s.renderer.URL("/"+url.PathEscape(slug)), http.StatusFound)
}

func (s *Server) handleConstellation(w http.ResponseWriter, r *http.Request) {
	pages, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list pages", zap.Error(err))
		http.Error(w, "failed to load pages", http.StatusInternalServerError)
		return
	}

	g, err := constellation.FromPages(pages)
	if err != nil {
		s.logger.Error("constellation", zap.Error(err))
		http.Error(w, "failed to build constellation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		s.logger.Warn("write constellation", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Count(r.Context()); err != nil {
		s.logger.Error("health check", zap.Error(err))
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, slug string) {
	var buf bytes.Buffer
	if err := s.renderer.RenderNotFound(&buf, slug, s.pageCount(r.Context())); err != nil {
		s.logger.Error("render not found", zap.Error(err))
		http.NotFound(w, r)
		return
	}
	writeHTML(w, http.StatusNotFound, buf.Bytes())
}

func (s *Server) pageCount(ctx context.Context) int {
	count, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("page count", zap.Error(err))
		return 0
	}
	return count
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
