package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/bou-cse/routines-api/api/swagger"
	"github.com/bou-cse/routines-api/internal/handler"
	"github.com/bou-cse/routines-api/internal/middleware"
	"github.com/bou-cse/routines-api/internal/repository"
	"github.com/bou-cse/routines-api/internal/service"
	"github.com/bou-cse/routines-api/pkg/cache"
	"github.com/bou-cse/routines-api/pkg/config"
	"github.com/bou-cse/routines-api/pkg/database"
	"github.com/bou-cse/routines-api/pkg/logger"
	corsmiddleware "github.com/bou-cse/routines-api/pkg/middleware/cors"
	reqidmiddleware "github.com/bou-cse/routines-api/pkg/middleware/requestid"
)

// @title BOU CSE Routines API
// @version 1.0.0
// @description Class routine generation for the CSE study-center programme
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, grid cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	termRepo := repository.NewTermRepository(db)
	termCourseRepo := repository.NewTermCourseRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, teacherRepo, validate, logr)
	termSvc := service.NewTermService(termRepo, termCourseRepo, courseRepo, validate, logr)
	conflictSvc := service.NewConflictService(termRepo, templateRepo, validate, logr)
	routineSvc := service.NewRoutineService(termRepo, termCourseRepo, templateRepo, sessionRepo, conflictSvc, db, cacheRepo, metricsSvc, validate, logr, service.RoutineServiceConfig{
		TeachingDays: cfg.Scheduler.TeachingDays,
		GridCacheTTL: cfg.Routine.GridCacheTTL,
	})
	exportSvc := service.NewExportService(termRepo, sessionRepo, nil, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	termHandler := handler.NewTermHandler(termSvc)
	routineHandler := handler.NewRoutineHandler(routineSvc, conflictSvc, exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/auth/me", authHandler.Me)

	protected.GET("/teachers", teacherHandler.List)
	protected.POST("/teachers", teacherHandler.Create)
	protected.GET("/teachers/:id", teacherHandler.Get)
	protected.PUT("/teachers/:id", teacherHandler.Update)
	protected.DELETE("/teachers/:id", teacherHandler.Delete)

	protected.GET("/courses", courseHandler.List)
	protected.POST("/courses", courseHandler.Create)
	protected.GET("/courses/:id", courseHandler.Get)
	protected.PUT("/courses/:id", courseHandler.Update)
	protected.DELETE("/courses/:id", courseHandler.Delete)

	protected.GET("/terms", termHandler.List)
	protected.POST("/terms", termHandler.Create)
	protected.GET("/terms/:id", termHandler.Get)
	protected.PUT("/terms/:id", termHandler.Update)
	protected.DELETE("/terms/:id", termHandler.Delete)
	protected.GET("/terms/:id/courses", termHandler.Courses)
	protected.PUT("/terms/:id/courses", termHandler.AssignCourses)

	protected.POST("/routines/generate", routineHandler.Generate)
	protected.GET("/routines/conflicts", routineHandler.CheckConflicts)
	protected.GET("/routines/:termId/grid", routineHandler.Grid)
	protected.GET("/routines/:termId/sessions", routineHandler.Sessions)
	protected.GET("/routines/:termId/templates", routineHandler.Templates)
	protected.GET("/routines/:termId/export/csv", routineHandler.ExportCSV)
	protected.GET("/routines/:termId/export/pdf", routineHandler.ExportPDF)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
