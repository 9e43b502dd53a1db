// Package httpapi implements the session state machine and endpoint
// dispatch: upload, TOML upload, download, and listing over TLS. TLS
// termination and HTTP/1.1 framing are treated as thin external
// collaborators, supplied here by net/http's own TLS-terminating
// http.Server, with an explicit sessionState tracked per request standing
// in for the reference's HLS_Session lifecycle (New → Handshaking →
// Reading → Dispatching → Writing → ShuttingDown → Closed). Method+target
// dispatch is grounded on go-chi/chi/v5, the router used by
// Emibrown-HLS-Playlist-Orchestrator/cmd/server/main.go.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/audiohls/ingest-server/internal/config"
	"github.com/audiohls/ingest-server/internal/idgen"
	"github.com/audiohls/ingest-server/internal/metrics"
	"github.com/audiohls/ingest-server/internal/storage"
)

// Server holds the collaborators every handler needs.
type Server struct {
	cfg     *config.Config
	layout  *storage.Layout
	log     *logrus.Logger
	metrics *metrics.Metrics
	ids     idgen.Generator
}

// New constructs a Server. ids may be nil, in which case idgen.NewUUIDGenerator is used.
func New(cfg *config.Config, layout *storage.Layout, log *logrus.Logger, m *metrics.Metrics, ids idgen.Generator) *Server {
	if ids == nil {
		ids = idgen.NewUUIDGenerator()
	}
	return &Server{cfg: cfg, layout: layout, log: log, metrics: m, ids: ids}
}

// Router builds the dispatch table: exactly two methods are recognized;
// every other method is rejected with 405 before any handler runs the
// dispatch branches.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.sessionMiddleware)
	r.Use(s.methodGate)

	r.Post("/toml/upload", s.handleTOMLUpload)
	r.Post("/*", s.handleUpload)

	r.Get("/hls/clients", s.handleListing)
	r.Get("/*", s.handleDownload)

	if s.metrics != nil {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			s.metrics.Handler().ServeHTTP(w, r)
		})
	}

	return r
}

// methodGate rejects any method other than GET and POST with 405 before
// routing reaches a handler.
func (s *Server) methodGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodPost:
			next.ServeHTTP(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
