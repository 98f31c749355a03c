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

	_ "github.com/izone-edu/izone-api/api/swagger"
	"github.com/izone-edu/izone-api/internal/gateway"
	"github.com/izone-edu/izone-api/internal/handler"
	"github.com/izone-edu/izone-api/internal/middleware"
	"github.com/izone-edu/izone-api/internal/repository"
	"github.com/izone-edu/izone-api/internal/service"
	"github.com/izone-edu/izone-api/pkg/cache"
	"github.com/izone-edu/izone-api/pkg/config"
	"github.com/izone-edu/izone-api/pkg/database"
	"github.com/izone-edu/izone-api/pkg/logger"
	corsmiddleware "github.com/izone-edu/izone-api/pkg/middleware/cors"
	reqidmiddleware "github.com/izone-edu/izone-api/pkg/middleware/requestid"
)

// @title IZONE Enrollment API
// @version 1.0.0
// @description Enrollment lifecycle engine for the IZONE language school.
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	classRepo := repository.NewClassRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationSvc := service.NewNotificationService(notificationRepo, cfg.Notification, logr)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	var provider service.PaymentProvider
	switch cfg.Payments.Provider {
	case "vnpay":
		provider = gateway.NewVNPayClient(cfg.Payments, logr)
	default:
		provider = gateway.NewVietQRClient(cfg.Payments, logr)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "izone-api",
	})
	eligibilitySvc := service.NewEligibilityService(classRepo, enrollmentRepo, sessionRepo, gradeRepo, attendanceRepo, cfg.Enrollment, logr)
	feeSvc := service.NewFeeService()
	paymentSvc := service.NewPaymentService(paymentRepo, enrollmentRepo, provider, notificationSvc, validate, logr)
	paymentSvc.SetMetrics(metrics)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, classRepo, reservationRepo, eligibilitySvc, feeSvc, paymentSvc, notificationSvc, cfg.Enrollment, validate, logr)
	enrollmentSvc.SetMetrics(metrics)
	reservationSvc := service.NewReservationService(reservationRepo, notificationSvc, logr)
	walletSvc := service.NewWalletService(walletRepo, notificationSvc, validate, logr)
	classSvc := service.NewClassService(classRepo, courseRepo, lecturerRepo, enrollmentRepo, cacheSvc, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, enrollmentRepo, validate, logr)
	lecturerSvc := service.NewLecturerService(lecturerRepo, validate, logr)
	locationSvc := service.NewLocationService(locationRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, classRepo, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, cfg.Enrollment, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, sessionRepo, enrollmentRepo, validate, logr)

	go sweepExpiredReservations(ctx, reservationSvc, metrics, cfg.Enrollment.ExpirySweepInterval, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	h := handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Enrollments:   handler.NewEnrollmentHandler(enrollmentSvc),
		Reservations:  handler.NewReservationHandler(reservationSvc),
		Classes:       handler.NewClassHandler(classSvc, enrollmentSvc),
		Courses:       handler.NewCourseHandler(courseSvc),
		Students:      handler.NewStudentHandler(studentSvc),
		Lecturers:     handler.NewLecturerHandler(lecturerSvc),
		Locations:     handler.NewLocationHandler(locationSvc),
		Sessions:      handler.NewSessionHandler(sessionSvc),
		Grades:        handler.NewGradeHandler(gradeSvc),
		Attendance:    handler.NewAttendanceHandler(attendanceSvc),
		Payments:      handler.NewPaymentHandler(paymentSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Wallet:        handler.NewWalletHandler(walletSvc),
		Status:        handler.NewStatusHandler(),
		Metrics:       handler.NewMetricsHandler(metrics),
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, h, authSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// sweepExpiredReservations periodically flips overdue reservations to EXPIRED
// so continuation attempts after the validity window fail cleanly.
func sweepExpiredReservations(ctx context.Context, reservations *service.ReservationService, metrics *service.MetricsService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := reservations.ExpireOverdue(ctx)
			if err != nil {
				logr.Error("reservation expiry sweep failed", zap.Error(err))
				continue
			}
			if expired > 0 {
				metrics.RecordReservationsExpired(expired)
				logr.Info("reservations expired", zap.Int("count", expired))
			}
		}
	}
}
