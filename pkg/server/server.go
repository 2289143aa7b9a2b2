package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/alpweather/meteoswiss-mcp/pkg/cache"
	"github.com/alpweather/meteoswiss-mcp/pkg/meteoswiss"
	"github.com/alpweather/meteoswiss-mcp/pkg/session"
)

const (
	serverName    = "meteoswiss-mcp"
	serverVersion = "1.0.0"

	serverInstructions = "Tools for MeteoSwiss (Swiss federal weather service) website content: " +
		"regional weather reports, site search and page content as markdown."
)

// Server assembles the MCP server, its tools and resources, and the HTTP
// surface they are served on.
type Server struct {
	mcp      *mcp.Server
	meteo    *meteoswiss.Client
	cache    *cache.Cache
	registry *session.Registry
	log      *slog.Logger

	allowedOrigins []string
}

type Option func(*Server)

func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithAllowedOrigins sets the browser origins accepted by the HTTP surface.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

func New(meteo *meteoswiss.Client, httpCache *cache.Cache, registry *session.Registry, opts ...Option) *Server {
	s := &Server{
		meteo:          meteo,
		cache:          httpCache,
		registry:       registry,
		log:            slog.Default(),
		allowedOrigins: []string{"http://localhost", "http://127.0.0.1"},
	}

	for _, o := range opts {
		o(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{Name: serverName, Version: serverVersion},
		&mcp.ServerOptions{Instructions: serverInstructions},
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCP exposes the underlying protocol server, used by tests to connect
// in-memory clients.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Routes builds the HTTP handler: the MCP streamable endpoint and the
// health check, behind origin filtering.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Mcp-Session-Id", "Last-Event-ID"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	}))

	r.Handle("/mcp", NewStreamableHandler(s.mcp, s.registry, s.log))
	r.Get("/health", s.handleHealth)
	return r
}
