package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"visitorax/internal/config"
	"visitorax/internal/db"
	"visitorax/internal/email"
	apihttp "visitorax/internal/http"
	"visitorax/internal/media"
	"visitorax/internal/repository"
	"visitorax/internal/service"
	"visitorax/internal/sms"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	redisClient, err := db.NewRedis(ctx, cfg)
	if err != nil {
		logger.Warn("redis connect failed", zap.Error(err))
	}

	visitorRepo := repository.NewPgVisitorRepository(pool)
	visitRepo := repository.NewPgVisitRepository(pool)
	adminRepo := repository.NewPgAdminRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	smsSender := sms.NewDisabledSender("sms sender not configured")
	if cfg.TwilioAccountSID != "" {
		sender, err := sms.NewTwilioSender(cfg.TwilioBaseURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
		if err != nil {
			logger.Warn("twilio sender init failed", zap.Error(err))
		} else {
			smsSender = sender
		}
	}

	uploader := media.NewDisabledUploader("photo uploader not configured")
	if cfg.CloudinaryCloudName != "" {
		up, err := media.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			logger.Warn("cloudinary init failed", zap.Error(err))
		} else {
			uploader = up
		}
	}

	inactivityTTL := time.Duration(cfg.InactivityTTLMinutes) * time.Minute
	otpLimiter := service.NewOTPRateLimiter(10*time.Minute, 3)
	activity := service.NewMemoryActivityTracker(inactivityTTL)
	if redisClient != nil {
		otpLimiter = service.NewRedisOTPRateLimiter(redisClient, 10*time.Minute, 3)
		activity = service.NewRedisActivityTracker(redisClient, inactivityTTL)
	}

	sessionSvc := service.NewSessionService(
		cfg.JWTSecret,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute,
		time.Duration(cfg.AdminTTLMinutes)*time.Minute,
	)

	otpSvc := service.NewOTPService(logger, visitorRepo, emailSender, smsSender, otpLimiter)
	verifySvc := service.NewFaceVerifyService(logger, visitorRepo)
	enrollSvc := service.NewEnrollmentService(logger, visitorRepo, uploader)
	visitSvc := service.NewVisitService(logger, visitRepo, visitorRepo)
	adminSvc := service.NewAdminService(logger, adminRepo, visitorRepo)

	authHandler := apihttp.NewAuthHandler(logger, otpSvc, verifySvc, enrollSvc, sessionSvc, activity)
	visitHandler := apihttp.NewVisitHandler(logger, visitSvc)
	adminHandler := apihttp.NewAdminHandler(logger, adminSvc, visitSvc, sessionSvc)
	router := apihttp.NewRouter(logger, authHandler, visitHandler, adminHandler, sessionSvc, activity, pool, redisClient)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
