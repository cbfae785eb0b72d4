package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/jaseeljazc/campuss-atd/api/swagger"
	"github.com/jaseeljazc/campuss-atd/internal/handler"
	"github.com/jaseeljazc/campuss-atd/internal/middleware"
	"github.com/jaseeljazc/campuss-atd/internal/models"
	"github.com/jaseeljazc/campuss-atd/internal/repository"
	"github.com/jaseeljazc/campuss-atd/internal/service"
	"github.com/jaseeljazc/campuss-atd/pkg/cache"
	"github.com/jaseeljazc/campuss-atd/pkg/config"
	"github.com/jaseeljazc/campuss-atd/pkg/database"
	"github.com/jaseeljazc/campuss-atd/pkg/logger"
	corsmiddleware "github.com/jaseeljazc/campuss-atd/pkg/middleware/cors"
	reqidmiddleware "github.com/jaseeljazc/campuss-atd/pkg/middleware/requestid"
	"github.com/jaseeljazc/campuss-atd/pkg/storage"
)

// @title Campus Attendance API
// @version 1.0.0
// @description Per-period class attendance tracking for a college department
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, analytics cache disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	attendanceRepo := repository.NewAttendanceRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Analytics.CacheTTL, logr, cfg.Analytics.CacheEnabled)
	rules := service.NewRules(cfg.Attendance)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      "campuss-atd",
	})
	attendanceService := service.NewAttendanceService(attendanceRepo, userRepo, cacheService, validate, logr)
	leaveService := service.NewLeaveService(leaveRepo, attendanceRepo, cacheService, cfg.Attendance.CollegeLeaveScope, validate, logr)
	calendarService := service.NewCalendarService(attendanceRepo, leaveRepo, userRepo, rules, logr)
	statsService := service.NewStatsService(attendanceRepo, userRepo, calendarService, cacheService, logr)

	exportArchive, err := storage.NewExportArchive(cfg.Exports.Dir)
	if err != nil {
		logr.Sugar().Warnw("export archive unavailable", "error", err)
		exportArchive = nil
	}
	exportSigner := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Exports.URLTTL)
	exportService := service.NewExportService(statsService, calendarService, exportArchive, exportSigner, logr)

	autofillService := service.NewLeaveAutofillService(leaveRepo, attendanceRepo, metricsService, cfg.Attendance.CollegeLeaveScope, logr)
	if cfg.Autofill.Enabled {
		autofillService.Start(ctx, cfg.Autofill.Interval)
		defer autofillService.Stop()
	}

	authHandler := handler.NewAuthHandler(authService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, statsService, calendarService)
	leaveHandler := handler.NewLeaveHandler(leaveService)
	analyticsHandler := handler.NewAnalyticsHandler(statsService, exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))

	protected.GET("/auth/me", authHandler.Me)

	staff := middleware.RequireRoles(models.RoleTeacher, models.RoleHOD)
	staffOrSelf := middleware.RBAC(string(models.RoleTeacher), string(models.RoleHOD), middleware.RoleSelf)
	hodOnly := middleware.RequireRoles(models.RoleHOD)
	hodOrSelf := middleware.RBAC(string(models.RoleHOD), string(models.RoleTeacher), middleware.RoleSelf)

	attendance := protected.Group("/attendance")
	attendance.POST("", staff, attendanceHandler.Mark)
	attendance.PUT("/:id", staff, attendanceHandler.Update)
	attendance.DELETE("/:id", hodOnly, attendanceHandler.Delete)
	attendance.GET("/department", staff, attendanceHandler.Department)
	attendance.GET("/students/:id", staffOrSelf, attendanceHandler.Student)
	attendance.GET("/students/:id/calendar", staffOrSelf, attendanceHandler.Calendar)

	leaves := protected.Group("/leaves")
	leaves.POST("/class", staff, leaveHandler.MarkClass)
	leaves.GET("/class", staff, leaveHandler.ListClass)
	leaves.DELETE("/class", hodOnly, leaveHandler.RemoveClass)
	leaves.POST("/college", hodOnly, leaveHandler.MarkCollege)
	leaves.GET("/college", staff, leaveHandler.ListCollege)
	leaves.DELETE("/college", hodOnly, leaveHandler.RemoveCollege)

	analytics := protected.Group("/analytics")
	analytics.GET("/students", staff, analyticsHandler.Students)
	analytics.GET("/low-attendance", hodOnly, analyticsHandler.LowAttendance)
	analytics.GET("/summary", staff, analyticsHandler.Summary)
	analytics.GET("/low-attendance/export", hodOnly, analyticsHandler.ExportLowAttendance)
	analytics.GET("/students/:id/report", hodOrSelf, analyticsHandler.StudentReport)

	// Signed token carries its own authorization.
	api.GET("/analytics/exports/:token", analyticsHandler.Download)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}

	if cacheRepo != nil {
		if err := cacheRepo.Close(); err != nil {
			logr.Warn("failed to close redis", zap.Error(err))
		}
	}
}
