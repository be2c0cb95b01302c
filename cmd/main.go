package main

import (
	"company-service/internal/handler"
	"company-service/internal/middleware"
	"company-service/internal/password"
	"company-service/internal/repository"
	"company-service/internal/service"
	"company-service/internal/sms"
	"company-service/internal/upload"
	"company-service/pkg/config"
	"company-service/pkg/database"
	"company-service/pkg/logger"
	"company-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting company service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Repositories
	companies := repository.NewCompanyRepository(db, cfg.DB.QueryTimeout)
	otps := repository.NewOTPRepository(db, cfg.DB.QueryTimeout)

	// Core services
	hasher := password.NewBcryptHasher(cfg.Auth.BcryptCost)
	codes := service.NewCodeGenerator(companies)
	otpService := service.NewOTPService(otps, cfg.Auth.OTPTTL, log)
	identity := service.NewIdentityService(companies, otpService, hasher, codes, log)
	directory := service.NewDirectoryService(companies)

	// Photo upload store
	uploads, err := upload.NewStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		log.Fatal("Failed to initialize upload store", zap.Error(err))
	}

	// OTP delivery collaborator; log-only when no provider key is set
	var sender sms.Sender
	if cfg.SMS.APIKey != "" {
		sender = sms.NewClient(cfg.SMS.BaseURL, cfg.SMS.APIKey)
	} else {
		log.Warn("SMS_API_KEY not set, OTP delivery will be logged only")
		sender = &sms.LogSender{Log: log}
	}

	// Handlers
	companyHandler := handler.NewCompanyHandler(identity, directory, uploads)
	authHandler := handler.NewAuthHandler(identity, otpService, sender)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Uploaded photos are served statically
	e.Static("/uploads", cfg.Upload.Dir)

	// Company registration, login and directory
	companiesGroup := e.Group("/companies")
	companiesGroup.POST("/register", companyHandler.Register)
	companiesGroup.POST("/login", companyHandler.Login)
	companiesGroup.GET("", companyHandler.List)
	companiesGroup.GET("/id/:id", companyHandler.GetByID)
	companiesGroup.GET("/code/:code", companyHandler.GetByCode)
	companiesGroup.GET("/search", companyHandler.Search)
	companiesGroup.PUT("/profile/:id", companyHandler.UpdateProfile)

	// OTP login and credential recovery
	auth := e.Group("/auth")
	auth.POST("/send-otp", authHandler.SendOTP)
	auth.POST("/verify-otp", authHandler.VerifyOTP)
	auth.POST("/verify-email", authHandler.VerifyEmail)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
