package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/emrs-app/exam-timetable-api/api/swagger"
	"github.com/emrs-app/exam-timetable-api/internal/middleware"
	"github.com/emrs-app/exam-timetable-api/internal/models"
	"github.com/emrs-app/exam-timetable-api/pkg/config"
	"github.com/emrs-app/exam-timetable-api/pkg/logger"
	corsmiddleware "github.com/emrs-app/exam-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/emrs-app/exam-timetable-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, deps dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, "/metrics"))

	r.GET("/health", deps.system.Health)
	r.GET("/ready", deps.system.Ready)
	r.GET("/metrics", deps.system.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(deps.tokens))

	admin := middleware.RequireRoles(models.RoleAdmin)
	anyone := middleware.RequireRoles(models.RoleAdmin, models.RoleStudent)
	audit := func(action string) gin.HandlerFunc { return middleware.Audit(logr, action, "timetable") }

	api.GET("/system/metrics", admin, deps.system.Status)

	timetables := api.Group("/timetables")
	timetables.GET("", anyone, deps.timetable.List)
	timetables.POST("", admin, audit("create"), deps.timetable.Create)
	timetables.GET("/published/department/:departmentId/level/:level", anyone, middleware.OwnDepartmentLevel(), deps.timetable.Published)
	timetables.GET("/:id", admin, deps.timetable.Get)
	timetables.PUT("/:id", admin, audit("update"), deps.timetable.Update)
	timetables.DELETE("/:id", admin, audit("delete"), deps.timetable.Delete)
	timetables.PUT("/:id/publish", admin, audit("publish"), deps.timetable.Publish)
	timetables.GET("/:id/export", admin, deps.timetable.Export)

	timetables.GET("/:id/exam-slots", admin, deps.examSlots.List)
	timetables.POST("/:id/exam-slots", admin, audit("add_exam_slot"), deps.examSlots.Add)
	timetables.DELETE("/:id/exam-slots/:slotId", admin, audit("remove_exam_slot"), deps.examSlots.Remove)
	timetables.POST("/:id/auto-schedule", admin, audit("auto_schedule"), deps.scheduler.Run)

	return r
}
