package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/internal/handler"
	"github.com/noah-isme/autoplanning-api/internal/middleware"
	"github.com/noah-isme/autoplanning-api/internal/service"
	"github.com/noah-isme/autoplanning-api/pkg/config"
	"github.com/noah-isme/autoplanning-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/autoplanning-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/autoplanning-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	students    *handler.StudentHandler
	instructors *handler.InstructorHandler
	settings    *handler.SettingsHandler
	planning    *handler.PlanningHandler
	bookings    *handler.BookingHandler
	dashboard   *handler.DashboardHandler
	metrics     *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/health", "/ready", "/metrics"))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	students := api.Group("/students")
	students.GET("", h.students.List)
	students.POST("", h.students.Create)
	students.GET("/:id", h.students.Get)
	students.PUT("/:id", h.students.Update)
	students.DELETE("/:id", h.students.Delete)

	instructors := api.Group("/instructors")
	instructors.GET("", h.instructors.List)
	instructors.POST("", h.instructors.Create)
	instructors.GET("/:id", h.instructors.Get)
	instructors.PUT("/:id", h.instructors.Update)
	instructors.DELETE("/:id", h.instructors.Delete)

	api.GET("/settings", h.settings.Get)
	api.PUT("/settings", h.settings.Update)

	api.GET("/lessons", h.planning.Lessons)
	api.GET("/planning/week", h.planning.Week)
	api.GET("/planning/team", h.planning.Team)
	api.GET("/planning/export", h.planning.Export)
	api.GET("/availability/check", h.planning.Availability)

	bookings := api.Group("/bookings")
	bookings.POST("", h.bookings.Open)
	bookings.GET("/:id", h.bookings.Get)
	bookings.POST("/:id/events", h.bookings.Apply)
	bookings.DELETE("/:id", h.bookings.Close)

	api.GET("/dashboard", h.dashboard.Summary)

	return r
}
