package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-api/internal/handler"
	"github.com/noah-isme/vaccination-api/internal/middleware"
	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/internal/repository"
	"github.com/noah-isme/vaccination-api/internal/service"
	"github.com/noah-isme/vaccination-api/pkg/cache"
	"github.com/noah-isme/vaccination-api/pkg/config"
	"github.com/noah-isme/vaccination-api/pkg/database"
	"github.com/noah-isme/vaccination-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/vaccination-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/vaccination-api/pkg/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

type handlers struct {
	appointments *handler.AppointmentHandler
	lots         *handler.LotHandler
	attendance   *handler.AttendanceHandler
	children     *handler.ChildHandler
	links        *handler.LinkHandler
	history      *handler.HistoryHandler
	catalog      *handler.CatalogHandler
	metrics      *handler.MetricsHandler
}

func runMigrations(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		return err
	}
	logr.Info("migrations applied", zap.Strings("files", applied))
	return nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// Catalog caching is optional; serve from Postgres.
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()
	tx := database.NewTransactor(db, metricsSvc)

	auditRepo := repository.NewAuditRepository(db)
	var auditSvc *service.AuditService
	if cfg.Audit.Enabled {
		auditSvc = service.NewAuditService(auditRepo, service.AuditQueueConfig{
			Workers:    cfg.Audit.Workers,
			BufferSize: cfg.Audit.BufferSize,
			MaxRetries: cfg.Audit.MaxRetries,
			RetryDelay: cfg.Audit.RetryDelay,
		}, logr)
		auditSvc.Start(ctx)
		defer auditSvc.Stop()
	}

	h := buildHandlers(cfg, logr, db, redisClient, tx, metricsSvc, validate)
	verifier := service.NewClaimsVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsSvc))
		r.GET(cfg.Metrics.Path, h.metrics.Prometheus)
	}

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Claims(verifier))
	registerRoutes(api, h, auditSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logr.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}

func buildHandlers(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, tx *database.Transactor, metricsSvc *service.MetricsService, validate *validator.Validate) handlers {
	lotRepo := repository.NewLotRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	childRepo := repository.NewChildRepository(db)
	vaccinationRepo := repository.NewVaccinationRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	historyRepo := repository.NewMedicalHistoryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "vax:")

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && redisClient != nil)
	catalogSvc := service.NewCatalogService(catalogRepo, cacheSvc, cfg.Catalog.CacheTTL, logr)
	lotSvc := service.NewLotService(lotRepo, tx, metricsSvc, validate, logr)
	childSvc := service.NewChildService(childRepo, vaccinationRepo, userRepo, tx, validate, logr, service.ChildServiceConfig{
		CodeTTL:    cfg.Linking.CodeTTL,
		CodeLength: cfg.Linking.CodeLength,
	})
	attendanceSvc := service.NewAttendanceService(service.AttendanceServiceParams{
		Appointments: appointmentRepo,
		Children:     childRepo,
		Records:      vaccinationRepo,
		Personnel:    userRepo,
		Lots:         lotSvc,
		Tx:           tx,
		Metrics:      metricsSvc,
		Validator:    validate,
		Logger:       logr,
		TxTimeout:    cfg.Attendance.TxTimeout,
	})
	appointmentSvc := service.NewAppointmentService(appointmentRepo, childSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(childSvc, catalogSvc, vaccinationRepo, logr)
	cardSvc := service.NewCardService(childSvc, vaccinationRepo, logr)
	linkingSvc := service.NewLinkingService(linkRepo, childRepo, userRepo, tx, metricsSvc, validate, logr)
	historySvc := service.NewHistoryService(historyRepo, vaccinationRepo, childSvc, validate, logr)

	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = cacheRepo.Ping
	}

	return handlers{
		appointments: handler.NewAppointmentHandler(appointmentSvc),
		lots:         handler.NewLotHandler(lotSvc),
		attendance:   handler.NewAttendanceHandler(attendanceSvc),
		children:     handler.NewChildHandler(childSvc, scheduleSvc, cardSvc),
		links:        handler.NewLinkHandler(linkingSvc),
		history:      handler.NewHistoryHandler(historySvc),
		catalog:      handler.NewCatalogHandler(catalogSvc),
		metrics:      handler.NewMetricsHandler(metricsSvc, checks),
	}
}

func registerRoutes(api *gin.RouterGroup, h handlers, audit *service.AuditService) {
	clinicians := middleware.RequireRoles(models.RoleDoctor, models.RoleNurse, models.RoleManager)
	childReaders := middleware.RequireRoles(models.RoleDoctor, models.RoleNurse, models.RoleManager, models.RoleTutor, models.RoleAdmin)
	tutors := middleware.RequireRoles(models.RoleTutor, models.RoleAdmin)
	admins := middleware.RequireRoles(models.RoleAdmin)

	api.GET("/appointments", middleware.RequireRoles(models.RoleDoctor, models.RoleManager), h.appointments.ListConfirmed)
	api.GET("/vaccine-lots/:vaccineId", h.lots.ListAvailable)
	api.POST("/attend-appointment", clinicians, middleware.Audit(audit, models.AuditActionAttend, "appointment"), h.attendance.Attend)

	children := api.Group("/children")
	children.POST("", tutors, middleware.Audit(audit, models.AuditActionChildRegister, "child"), h.children.Register)
	children.GET("/link-requests", tutors, h.links.ListPending)
	children.POST("/request-link", tutors, middleware.Audit(audit, models.AuditActionLinkRequest, "link_request"), h.links.Request)
	children.POST("/respond-link-request/:id", tutors, middleware.Audit(audit, models.AuditActionLinkRespond, "link_request"), h.links.Respond)
	children.GET("/tutor/:tutorId/detailed", tutors, h.children.ListForTutor)
	children.GET("/:id/vaccination-schedule", childReaders, h.children.Schedule)
	children.GET("/:id/vaccination-card", childReaders, h.children.Card)
	children.GET("/:id/appointments", childReaders, h.appointments.ForChild)
	children.DELETE("/:id", admins, middleware.Audit(audit, models.AuditActionChildDelete, "child"), h.children.Delete)

	api.POST("/patient-full-history", h.history.FullHistory)
	api.POST("/create-patient-history", childReaders, middleware.Audit(audit, models.AuditActionHistoryCreate, "medical_history"), h.history.Create)

	api.GET("/vaccines", middleware.WithResponseMeta(), h.catalog.List)
	api.POST("/vaccines/refresh", admins, middleware.Audit(audit, models.AuditActionCatalogRefresh, "vaccine_catalog"), h.catalog.Refresh)
}
