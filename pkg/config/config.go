package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Enrollment   EnrollmentConfig
	Cache        CacheConfig
	Payments     PaymentsConfig
	Notification NotificationConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EnrollmentConfig names the business thresholds that gate lifecycle
// transitions. They were magic numbers in the legacy system.
type EnrollmentConfig struct {
	// MinSessionsForReservation is the minimum count of not-yet-held
	// sessions required to request a leave-of-absence reservation.
	MinSessionsForReservation int
	// ReservationValidity is how long an approved reservation can be
	// consumed before it expires.
	ReservationValidity time.Duration
	// ExpirySweepInterval controls how often approved reservations past
	// their deadline are swept to EXPIRED.
	ExpirySweepInterval time.Duration
	// RetakePassMark is the average-grade threshold below which a completed
	// enrollment qualifies for a free retake.
	RetakePassMark float64
	// RetakeMinAttendanceRate qualifies a retake when attendance fell below
	// this fraction of held sessions, regardless of grades.
	RetakeMinAttendanceRate float64
	// MaxAttendedForChange is the maximum number of attended sessions after
	// which a class change is no longer allowed.
	MaxAttendedForChange int
	// GradePassMark is the per-exam pass threshold.
	GradePassMark float64
}

// CacheConfig tunes the Redis-backed read cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// PaymentsConfig selects and configures the external payment providers.
type PaymentsConfig struct {
	Provider       string
	VietQRBaseURL  string
	VietQRAPIKey   string
	VNPayBaseURL   string
	VNPayMerchant  string
	VNPaySecret    string
	ReturnURL      string
	RequestTimeout time.Duration
}

// NotificationConfig tunes the fire-and-forget dispatch workers.
type NotificationConfig struct {
	Workers    int
	BufferSize int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Enrollment = EnrollmentConfig{
		MinSessionsForReservation: v.GetInt("MIN_SESSIONS_FOR_RESERVATION"),
		ReservationValidity:       parseDuration(v.GetString("RESERVATION_VALIDITY"), 365*24*time.Hour),
		ExpirySweepInterval:       parseDuration(v.GetString("RESERVATION_SWEEP_INTERVAL"), time.Hour),
		RetakePassMark:            v.GetFloat64("RETAKE_PASS_MARK"),
		RetakeMinAttendanceRate:   v.GetFloat64("RETAKE_MIN_ATTENDANCE_RATE"),
		MaxAttendedForChange:      v.GetInt("MAX_ATTENDED_FOR_CHANGE"),
		GradePassMark:             v.GetFloat64("GRADE_PASS_MARK"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Payments = PaymentsConfig{
		Provider:       v.GetString("PAYMENT_PROVIDER"),
		VietQRBaseURL:  v.GetString("VIETQR_BASE_URL"),
		VietQRAPIKey:   v.GetString("VIETQR_API_KEY"),
		VNPayBaseURL:   v.GetString("VNPAY_BASE_URL"),
		VNPayMerchant:  v.GetString("VNPAY_MERCHANT_CODE"),
		VNPaySecret:    v.GetString("VNPAY_SECRET"),
		ReturnURL:      v.GetString("PAYMENT_RETURN_URL"),
		RequestTimeout: parseDuration(v.GetString("PAYMENT_REQUEST_TIMEOUT"), 10*time.Second),
	}

	cfg.Notification = NotificationConfig{
		Workers:    v.GetInt("NOTIFICATION_WORKERS"),
		BufferSize: v.GetInt("NOTIFICATION_BUFFER_SIZE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "izone_academy")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MIN_SESSIONS_FOR_RESERVATION", 5)
	v.SetDefault("RESERVATION_VALIDITY", "8760h")
	v.SetDefault("RESERVATION_SWEEP_INTERVAL", "1h")
	v.SetDefault("RETAKE_PASS_MARK", 5.5)
	v.SetDefault("RETAKE_MIN_ATTENDANCE_RATE", 0.8)
	v.SetDefault("MAX_ATTENDED_FOR_CHANGE", 3)
	v.SetDefault("GRADE_PASS_MARK", 5.0)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("PAYMENT_PROVIDER", "vietqr")
	v.SetDefault("VIETQR_BASE_URL", "https://api.vietqr.io")
	v.SetDefault("VIETQR_API_KEY", "")
	v.SetDefault("VNPAY_BASE_URL", "https://sandbox.vnpayment.vn")
	v.SetDefault("VNPAY_MERCHANT_CODE", "")
	v.SetDefault("VNPAY_SECRET", "")
	v.SetDefault("PAYMENT_RETURN_URL", "http://localhost:8080/api/v1/payments/callback")
	v.SetDefault("PAYMENT_REQUEST_TIMEOUT", "10s")

	v.SetDefault("NOTIFICATION_WORKERS", 2)
	v.SetDefault("NOTIFICATION_BUFFER_SIZE", 64)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
