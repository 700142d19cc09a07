// Package api expõe o serviço em HTTP (chi).
//
// Rotas, relativas ao BasePath:
//
//	POST   /test          valida, aplica o teto de potential e gera na hora
//	POST   /config        registra a schema e devolve o handle
//	POST   /create        alias legado de POST /config
//	GET    /config/{id}   inspeciona (não renova o TTL)
//	DELETE /config/{id}   remove
//	DELETE /{id}          alias legado de DELETE /config/{id}
//	GET    /{id}          gera dados a partir da schema registrada (renova o TTL, rate limited)
//
// GET /healthz fica fora do BasePath. Qualquer outra rota é 404.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/isaacronan/poorbox-service/endpoint"
	"github.com/isaacronan/poorbox-service/middleware/ratelimit"
	"github.com/isaacronan/poorbox-service/middleware/ratelimit/application"
	"github.com/isaacronan/poorbox-service/middleware/ratelimit/domain"
	"github.com/isaacronan/poorbox-service/schema"
	"github.com/isaacronan/poorbox-service/usage"
)

// Generator produz a árvore de valores de uma schema (ver dispatcher.Client).
type Generator interface {
	Generate(ctx context.Context, s schema.Schema) (json.RawMessage, error)
}

type Options struct {
	Store     endpoint.Store
	Generator Generator
	Guard     schema.Guard

	// Limiter protege GET /{id}. nil desliga o rate limit.
	Limiter             domain.LimiterStore
	RateKeyHeader       string
	TrustXFF            bool
	AddRateLimitHeaders bool

	// Slots limita as gerações simultâneas (GET /{id} e POST /test). nil desliga.
	Slots *application.ConcurrencyService

	Usage usage.Recorder
	// Totals, se definido, aparece no /healthz.
	Totals usage.Reader

	BasePath  string
	PublicURL string
	Logger    *slog.Logger
}

type Server struct {
	store     endpoint.Store
	gen       Generator
	guard     schema.Guard
	slots     *application.ConcurrencyService
	usage     usage.Recorder
	totals    usage.Reader
	basePath  string
	publicURL string
	trustXFF  bool
	log       *slog.Logger
	router    *chi.Mux
}

func NewServer(opts Options) *Server {
	s := &Server{
		store:     opts.Store,
		gen:       opts.Generator,
		guard:     opts.Guard,
		slots:     opts.Slots,
		usage:     opts.Usage,
		totals:    opts.Totals,
		basePath:  opts.BasePath,
		publicURL: opts.PublicURL,
		trustXFF:  opts.TrustXFF,
		log:       opts.Logger,
	}
	if s.usage == nil {
		s.usage = usage.Nop{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.setupRoutes(opts)
	return s
}

func (s *Server) setupRoutes(opts Options) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustXFF {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, msgNotFound)
	})

	r.Get("/healthz", s.handleHealth)

	rateLimited := ratelimit.Middleware(ratelimit.Options{
		Store:               opts.Limiter,
		KeyHeader:           opts.RateKeyHeader,
		TrustXForwardedFor:  opts.TrustXFF,
		AddRateLimitHeaders: opts.AddRateLimitHeaders,
		Reject: func(w http.ResponseWriter, r *http.Request, status int) {
			s.record(r, routeData, usage.RateLimited)
			s.writeError(w, status, msgRateLimited)
		},
	})
	generation := ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Service: opts.Slots,
		Reject: func(w http.ResponseWriter, r *http.Request, status int) {
			s.record(r, "", usage.Unavailable)
			s.writeError(w, status, msgUnavailable)
		},
	})

	api := func(r chi.Router) {
		r.With(generation).Post("/test", s.handleTest)
		r.Post("/config", s.handleCreate)
		r.Post("/create", s.handleCreate)
		r.Get("/config/{id}", s.handleInspect)
		r.Delete("/config/{id}", s.handleDelete)
		r.Delete("/{id}", s.handleDelete)
		r.With(rateLimited, generation).Get("/{id}", s.handleData)
	}
	if s.basePath == "" {
		r.Group(api)
	} else {
		r.Route(s.basePath, api)
	}

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
