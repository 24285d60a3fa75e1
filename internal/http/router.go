package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/repository"
	"github.com/abdoelngaar-maker/housing-management/internal/service"
	"github.com/abdoelngaar-maker/housing-management/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps 路由依赖
type Deps struct {
	Units         service.UnitService
	Residents     service.ResidentService
	Occupancy     service.OccupancyService
	Sectors       service.SectorService
	Notifications service.NotificationService
	Reports       service.ReportService
	Documents     service.DocumentService
	Store         repository.Store

	// Uploads serves locally stored images; nil when objects live in S3.
	Uploads http.Handler

	Registry *prometheus.Registry
	Logger   *zap.Logger

	JWTSecret      string
	RateLimitRPM   int      // 0 = 不限流
	CORSOrigins    []string // 空 = 允许所有
	MaxUploadBytes int64
}

const defaultMaxUpload = 10 << 20

// NewRouter builds the HTTP surface: probes and metrics at the root, the API under /api/v1.
func NewRouter(d Deps) http.Handler {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = defaultMaxUpload
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger, newHTTPMetrics(d.Registry)))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, Fail(localize(requestLanguage(req), msgUnavailable)))
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ready"}))
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	if d.Uploads != nil {
		r.Handle(storage.LocalURLPrefix+"*", http.StripPrefix(storage.LocalURLPrefix, d.Uploads))
	}

	auth := NewAuthenticator(d.JWTSecret, d.Store, d.Logger)
	units := NewUnitsHandler(d.Units, d.MaxUploadBytes, d.Logger)
	residents := NewResidentsHandler(d.Residents, d.Occupancy, d.Logger)
	occupancy := NewOccupancyHandler(d.Occupancy, d.MaxUploadBytes, d.Logger)
	reports := NewReportsHandler(d.Reports, d.Logger)
	sectors := NewSectorsHandler(d.Sectors, d.Logger)
	notifications := NewNotificationsHandler(d.Notifications, d.Logger)
	documents := NewDocumentsHandler(d.Documents, d.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		if d.RateLimitRPM > 0 {
			r.Use(httprate.Limit(d.RateLimitRPM, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, req *http.Request) {
					writeJSON(w, http.StatusTooManyRequests, Fail(localize(requestLanguage(req), msgRateLimited)))
				}),
			))
		}
		r.Use(auth.Middleware)

		r.Route("/units", units.Routes)
		r.Route("/residents", residents.Routes)
		r.Route("/occupancy", occupancy.Routes)
		r.Route("/reports", reports.Routes)
		r.Route("/records", reports.RecordRoutes)
		r.Route("/import-logs", reports.ImportLogRoutes)
		r.Route("/sectors", sectors.Routes)
		r.Route("/users", func(r chi.Router) {
			r.Use(requireAdmin)
			sectors.UserRoutes(r)
		})
		r.Route("/notifications", notifications.Routes)
		r.Route("/documents", documents.Routes)
	})

	return r
}
