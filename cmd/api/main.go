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

	_ "github.com/opencampus/sims-api/api/swagger"
	"github.com/opencampus/sims-api/internal/handler"
	"github.com/opencampus/sims-api/internal/middleware"
	"github.com/opencampus/sims-api/internal/repository"
	"github.com/opencampus/sims-api/internal/service"
	"github.com/opencampus/sims-api/pkg/cache"
	"github.com/opencampus/sims-api/pkg/config"
	"github.com/opencampus/sims-api/pkg/database"
	"github.com/opencampus/sims-api/pkg/jobs"
	"github.com/opencampus/sims-api/pkg/logger"
	corsmiddleware "github.com/opencampus/sims-api/pkg/middleware/cors"
	reqidmiddleware "github.com/opencampus/sims-api/pkg/middleware/requestid"
	"github.com/opencampus/sims-api/pkg/storage"
)

// @title SIMS API
// @version 1.0.0
// @description Student information management: enrollment, grading, documents, announcements and report exports
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis backs caching and reset tokens only; degrade instead of dying.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			redisClient.Close() //nolint:errcheck
		}
	}()

	reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()
	fileHost := storage.NewFileHost(cfg.Uploads)
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, cacheRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	studentService := service.NewStudentService(studentRepo, enrollmentRepo, gradeRepo, sectionRepo, logr)
	facultyService := service.NewFacultyService(facultyRepo, sectionRepo, assignmentRepo, gradeRepo, validate, logr)
	documentService := service.NewDocumentService(documentRepo, fileHost, studentRepo, facultyRepo, notificationRepo, studentRepo, logr, service.DocumentServiceConfig{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	})
	notificationService := service.NewNotificationService(notificationRepo, announcementRepo, validate, logr)
	adminService := service.NewAdminService(reportRepo, courseRepo, sectionRepo, userRepo, studentRepo, facultyRepo, cacheRepo, cfg.Dashboard.CacheTTL, validate, logr)
	reportService := service.NewReportService(reportRepo, reportStorage, signer, logr)

	reportQueue := jobs.NewQueue("reports", reportService.Process, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportService.BindQueue(reportQueue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reportQueue.Start(ctx)
	defer reportQueue.Stop()

	go expiredReportSweeper(ctx, reportStorage, cfg.Reports.SignedURLTTL, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService, int(cfg.JWT.Expiration.Seconds()), cfg.Env == config.EnvProduction),
		Student:       handler.NewStudentHandler(studentService, notificationService),
		Faculty:       handler.NewFacultyHandler(facultyService, notificationService),
		Admin:         handler.NewAdminHandler(adminService, notificationService, metricsService),
		Documents:     handler.NewDocumentHandler(documentService),
		Notifications: handler.NewNotificationHandler(notificationService),
		Reports:       handler.NewReportHandler(reportService),
		AuthService:   authService,
		Metrics:       metricsService,
		Roles:         userRepo,
		Guard: middleware.GuardConfig{
			DevBypassAuth: cfg.Guard.DevBypassAuth,
			Logger:        logr,
		},
		APIPrefix: cfg.APIPrefix,
	})

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}

// expiredReportSweeper removes generated report files older than twice the
// signed URL lifetime. Jobs keep their metadata; only the artifacts go.
func expiredReportSweeper(ctx context.Context, store *storage.LocalStorage, signedTTL time.Duration, logr *zap.Logger) {
	retention := 2 * signedTTL
	if retention < time.Hour {
		retention = time.Hour
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(retention)
			if err != nil {
				logr.Sugar().Warnw("report cleanup failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("expired reports removed", "count", len(removed))
			}
		}
	}
}
