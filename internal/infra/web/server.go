package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-lead-bot/internal/config"
	"telegram-lead-bot/internal/infra/metrics"
	"telegram-lead-bot/internal/usecase"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Server is the read-only dashboard: users, opt-in count and recent broadcasts.
type Server struct {
	cfg     config.DashboardConfig
	statsUC usecase.StatsUseCase
	tmpl    *template.Template
	router  chi.Router
	server  *http.Server
	log     *zerolog.Logger
}

func NewServer(cfg config.DashboardConfig, statsUC usecase.StatsUseCase, logger *zerolog.Logger) (*Server, error) {
	tmpl, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"fmtTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2006-01-02 15:04")
		},
	}).ParseFS(templatesFS, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, statsUC: statsUC, tmpl: tmpl, log: logger}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log))

	r.Get("/health", healthHandler)
	r.Group(func(r chi.Router) {
		r.Use(BasicAuth(s.cfg.User, s.cfg.Password), Timeout(s.cfg.Timeout))
		r.Get("/", s.dashboardHandler)
		r.Get("/api/v1/stats", s.statsHandler)
		r.Handle("/metrics", metrics.Handler())
	})
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Str("addr", s.cfg.Address()).Msg("Dashboard listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
