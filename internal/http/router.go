package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/atu_queue/kiosk/internal/config"
	"github.com/atu_queue/kiosk/internal/db"
	"github.com/atu_queue/kiosk/internal/http/handlers"
	"github.com/atu_queue/kiosk/internal/http/middleware"
	"github.com/atu_queue/kiosk/internal/service"

	_ "github.com/atu_queue/kiosk/docs"
)

func Router(cfg config.Config, kv db.KV, svc *service.IssuingService, gatherer prometheus.Gatherer, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.AdminKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" || cfg.CORSAllowed == "" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		for _, origin := range strings.Split(cfg.CORSAllowed, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				corsCfg.AllowOrigins = append(corsCfg.AllowOrigins, origin)
			}
		}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		KV:        kv,
		Service:   svc,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.GET("/config", h.ConfigGet)

		api.POST("/tickets", h.Issue)
		api.POST("/tickets/consultation", h.IssueConsultation)
		api.POST("/tickets/admission", h.IssueAdmission)
		api.GET("/tickets", h.TicketsList)
		api.GET("/tickets/last", h.TicketLast)
		api.GET("/tickets/:number", h.TicketDetails)
		api.POST("/tickets/:number/forward", h.TicketForward)

		api.GET("/queue/board", h.QueueBoard)

		api.GET("/session", h.SessionGet)
		api.PATCH("/session", h.SessionPatch)
		api.DELETE("/session", h.SessionClear)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/tickets/:number/status", h.TicketStatus)
		admin.POST("/tickets/:number/done", h.TicketDone)
		admin.POST("/tickets/:number/cancel", h.TicketCancel)
		admin.GET("/queue/pending", h.QueuePending)
		admin.POST("/queue/next", h.QueueCallNext)
		admin.GET("/tickets/export", h.TicketsExport)
		admin.GET("/sequences/:prefix", h.SequencePeek)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
