package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/photoalbum-backend/api/controllers"
	"github.com/angelmondragon/photoalbum-backend/api/middleware"
	"github.com/angelmondragon/photoalbum-backend/api/responses"
	"github.com/angelmondragon/photoalbum-backend/internal/media"
	"github.com/angelmondragon/photoalbum-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/angelmondragon/photoalbum-backend/pkg/logger"
	"github.com/angelmondragon/photoalbum-backend/pkg/metrics"
	"github.com/angelmondragon/photoalbum-backend/pkg/redis"
)

// NewRouter wires the HTTP surface. redisClient may be nil, which disables
// upload rate limiting and drops redis from readiness.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	mediaService *media.Service,
	redisClient *redis.Client,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		metrics.NewHTTPMetrics(registry).Middleware,
	)

	var limiter middleware.WindowLimiter
	readiness := []controllers.ReadinessCheck{{Name: "media", Pinger: mediaService}}
	if redisClient != nil {
		limiter = redisClient
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	}

	uploadPolicy := middleware.NewRateLimitPolicy(
		"upload",
		cfg.UploadRateLimit.Window,
		cfg.UploadRateLimit.IPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/years", controllers.Years(mediaService, logg))
		r.Get("/years/{year}/months", controllers.Months(mediaService, logg))
		r.Get("/media", controllers.MediaByQuery(mediaService, logg))
		r.Get("/media/{year}/{month}", controllers.MediaByPath(mediaService, logg))
		r.Get("/albums", controllers.Albums(mediaService, logg))
		r.With(middleware.RateLimit(uploadPolicy, limiter, logg)).Post("/upload", controllers.Upload(mediaService, controllers.UploadLimits{
			MaxRequestBytes: cfg.Media.MaxRequestBytes(),
			MemoryBytes:     cfg.Media.MultipartMemoryBytes(),
		}, logg))
		r.Get("/files/{id}", controllers.File(mediaService, logg))
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	return r
}
