package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/suPer8Hu/intake-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/intake-chat/internal/httpapi/middleware"
)

type Options struct {
	ServiceName    string
	AllowedOrigin  string
	ClientIPHeader string
	BurstRPM       int
	BurstSize      int
	JWTSecret      string
	AdminEnabled   bool
}

func NewRouter(opts Options, h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.TrustedPlatform = opts.ClientIPHeader
	_ = r.SetTrustedProxies(nil)

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.AccessLog())
	r.Use(otelgin.Middleware(opts.ServiceName))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{opts.AllowedOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		MaxAge:           24 * time.Hour,
		AllowCredentials: false,
	}))

	r.NoRoute(h.NotFound)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.POST("/chat", middleware.BurstLimit(opts.BurstRPM, opts.BurstSize), h.Chat)
	api.POST("/send-transcript", h.SendTranscript)
	api.POST("/contact", h.Contact)

	if opts.AdminEnabled {
		api.POST("/admin/login", h.AdminLogin)
		admin := api.Group("/admin")
		admin.Use(middleware.AdminRequired(opts.JWTSecret))
		admin.GET("/metrics", h.AdminMetrics)
	}
	return r
}
