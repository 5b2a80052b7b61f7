// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, identity, logging/redaction, panic recovery,
// metrics, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → identity → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/docs"
	"github.com/tbourn/go-meeting-backend/internal/config"
	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/http/handlers"
	"github.com/tbourn/go-meeting-backend/internal/http/middleware"
	"github.com/tbourn/go-meeting-backend/internal/repo"
	"github.com/tbourn/go-meeting-backend/internal/services"
	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// meetingRepoShim adapts the repository free functions to the
// services.MeetingRepo interface expected by the MeetingService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type meetingRepoShim struct{}

// CreateMeeting proxies repo.CreateMeeting.
func (meetingRepoShim) CreateMeeting(ctx context.Context, db *gorm.DB, m *domain.Meeting) error {
	return repo.CreateMeeting(ctx, db, m)
}

// GetMeeting proxies repo.GetMeeting.
func (meetingRepoShim) GetMeeting(ctx context.Context, db *gorm.DB, id string) (*domain.Meeting, error) {
	return repo.GetMeeting(ctx, db, id)
}

// CountMeetings proxies repo.CountMeetings (pagination support).
func (meetingRepoShim) CountMeetings(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	return repo.CountMeetings(ctx, db, ownerID)
}

// ListMeetingsPage proxies repo.ListMeetingsPage (pagination support).
func (meetingRepoShim) ListMeetingsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Meeting, error) {
	return repo.ListMeetingsPage(ctx, db, ownerID, offset, limit)
}

// MeetingsStats proxies repo.MeetingsStats (ETag support).
func (meetingRepoShim) MeetingsStats(ctx context.Context, db *gorm.DB, ownerID string) (int64, *time.Time, error) {
	return repo.MeetingsStats(ctx, db, ownerID)
}

// idempotencyStore persists Idempotency-Key results through the repo.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s idempotencyStore) Get(ctx context.Context, userID, scope, key string) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

func (s idempotencyStore) Put(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resourceID, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent request with the same key recorded first.
		return nil
	}
	return err
}

func (s idempotencyStore) lookup(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return rec != nil, err
}

// Deps carries the long-lived collaborators built by the entrypoint.
type Deps struct {
	// DB is the persistence handle shared by every service.
	DB *gorm.DB
	// Live is the change feed adapter (feed.Adapter) serving tallies and
	// viewer subscriptions.
	Live handlers.LiveTallies
	// Publisher receives committed row changes (feed.Hub).
	Publisher services.Publisher
	// Notifier queues best-effort notifications (notify.Dispatcher).
	Notifier services.Notifier
	// Codec validates submitted slots.
	Codec slot.Codec
	// Logger is handed to background-facing services.
	Logger zerolog.Logger
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), identity,
// idempotency and rate limiting, CORS and security headers, health, metrics
// and docs endpoints, and then mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: resolve the caller (bearer token or X-User-ID)
//  4. RedactingLogger: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Caller identity
	r.Use(middleware.Identity(middleware.IdentityOptions{
		Secret:      []byte(cfg.Auth.JWTSecret),
		Issuer:      cfg.Auth.JWTIssuer,
		AllowHeader: cfg.Auth.AllowHeader,
	}))

	// 4) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders:     []string{"X-API-Key"},
		MaskQueryParams: []string{"guest_name"},
	}))

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	idem := idempotencyStore{db: d.DB, ttl: cfg.IdempotencyTTL}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.lookup))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP(), "/health", "/metrics")
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	exposeHeaders := []string{"X-Request-ID", "ETag", "Retry-After", handlers.HeaderIdempotencyReplayed, "Content-Length"}
	methods := []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = normalizeBase(cfg.APIBasePath)
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/feed/notify
	meetingSvc := services.NewMeetingService(d.DB, meetingRepoShim{}, d.Notifier)
	participantSvc := services.NewParticipantService(d.DB, d.Publisher)
	availabilitySvc := services.NewAvailabilityService(d.DB, d.Codec, d.Publisher, d.Notifier)
	lifecycleSvc := services.NewLifecycleService(d.DB, d.Live, d.Publisher, d.Notifier, d.Logger)
	notificationSvc := &services.NotificationService{DB: d.DB}

	h := handlers.New(handlers.Deps{
		Meetings:      meetingSvc,
		Participants:  participantSvc,
		Availability:  availabilitySvc,
		Lifecycle:     lifecycleSvc,
		Notifications: notificationSvc,
		Live:          d.Live,
		Idempotency:   idem,
	})

	// Public API. The stream route is registered outside the gzip group so
	// events reach the client as soon as they are flushed.
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.GET("/meetings/:id/stream", h.StreamMeeting)

	jsonAPI := api.Group("", gzip.Gzip(gzip.DefaultCompression))
	auth := jsonAPI.Group("", middleware.RequireUser())
	{
		// Meetings
		auth.POST("/meetings", h.CreateMeeting)
		auth.GET("/meetings", h.ListMeetings)
		jsonAPI.GET("/meetings/:id", h.GetMeeting)
		jsonAPI.POST("/meetings/:id/participants", h.JoinMeeting)

		// Aggregation
		jsonAPI.GET("/meetings/:id/availability", h.ListMeetingAvailability)
		jsonAPI.GET("/meetings/:id/tally", h.GetTally)

		// Lifecycle
		auth.POST("/meetings/:id/finalize", h.FinalizeMeeting)
		auth.POST("/meetings/:id/cancel", h.CancelMeeting)

		// Availability
		jsonAPI.PUT("/participants/:id/availability", h.PutAvailability)
		jsonAPI.GET("/participants/:id/availability", h.GetAvailability)
		jsonAPI.DELETE("/participants/:id/availability", h.DeleteAvailability)

		// Notifications
		auth.GET("/notifications", h.ListNotifications)
		auth.POST("/notifications/read-all", h.MarkAllNotificationsRead)
		auth.POST("/notifications/:id/read", h.MarkNotificationRead)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	return r.Group(normalizeBase(prefix))
}

func normalizeBase(prefix string) string {
	if prefix == "" || prefix == "/" {
		return ""
	}
	return prefix
}
