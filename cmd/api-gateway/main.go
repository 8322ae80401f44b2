package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/mailtrack-api/api/swagger"
	"github.com/noah-isme/mailtrack-api/internal/handler"
	"github.com/noah-isme/mailtrack-api/internal/middleware"
	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/internal/repository"
	"github.com/noah-isme/mailtrack-api/internal/service"
	"github.com/noah-isme/mailtrack-api/pkg/cache"
	"github.com/noah-isme/mailtrack-api/pkg/config"
	"github.com/noah-isme/mailtrack-api/pkg/database"
	"github.com/noah-isme/mailtrack-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/mailtrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/mailtrack-api/pkg/middleware/requestid"
	"github.com/noah-isme/mailtrack-api/pkg/storage"
)

// @title Mail Tracking API
// @version 1.0.0
// @description Access-controlled mail registry and referral workflow
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Caching is an optimization; the directory works without it.
		logr.Warn("redis unavailable, directory caching disabled", zap.Error(err))
		redisClient = nil
	}

	files, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare uploads storage", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	mailRepo := repository.NewMailRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metrics := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, cfg.JWT, logr)
	mailService := service.NewMailService(mailRepo, files, cfg.Uploads, metrics, logr)
	referralService := service.NewReferralService(referralRepo, commentRepo, mailRepo, directoryRepo, metrics, logr)
	directoryService := service.NewDirectoryService(directoryRepo, cacheRepo, cfg.Cache, logr)
	userService := service.NewUserService(userRepo, logr)

	authHandler := handler.NewAuthHandler(authService)
	mailHandler := handler.NewMailHandler(mailService, files)
	referralHandler := handler.NewReferralHandler(referralService)
	adminHandler := handler.NewAdminHandler(directoryService, userService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	authed.Use(middleware.Audit(logr))

	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/mails", mailHandler.List)
	authed.GET("/mails/search", mailHandler.List)
	authed.GET("/mails/:id", mailHandler.Get)
	authed.GET("/mails/:id/attachments", mailHandler.Attachments)
	authed.GET("/attachments/:id/download", mailHandler.Download)
	authed.POST("/mails",
		middleware.RequireRoles(models.RoleAdmin, models.RoleManager),
		mailHandler.Create,
	)

	authed.POST("/referrals",
		middleware.RequireRoles(models.RoleAdmin, models.RoleManager),
		referralHandler.Create,
	)
	authed.GET("/referrals/:id", referralHandler.Get)
	authed.PATCH("/referrals/:id/status", referralHandler.UpdateStatus)
	authed.DELETE("/referrals/:id",
		middleware.RequireRoles(models.RoleAdmin, models.RoleManager),
		referralHandler.Delete,
	)
	authed.GET("/referrals/:id/comments", referralHandler.ListComments)
	authed.POST("/referrals/:id/comments", referralHandler.AddComment)
	authed.GET("/sections/:id/referrals", referralHandler.ListBySection)

	authed.GET("/departments", adminHandler.ListDepartments)
	authed.GET("/departments/:id/sections", adminHandler.ListSectionsByDepartment)
	authed.GET("/sections", adminHandler.ListSections)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/departments", adminHandler.CreateDepartment)
	admin.PUT("/departments/:id", adminHandler.UpdateDepartment)
	admin.DELETE("/departments/:id", adminHandler.DeleteDepartment)
	admin.POST("/sections", adminHandler.CreateSection)
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.PUT("/users/:id", adminHandler.UpdateUser)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
