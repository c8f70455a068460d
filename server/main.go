package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eclipse-sealman/sealman-ems/pkg/auth"
	"github.com/eclipse-sealman/sealman-ems/pkg/config"
	"github.com/eclipse-sealman/sealman-ems/pkg/health"
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
	"github.com/eclipse-sealman/sealman-ems/pkg/security"
	"github.com/eclipse-sealman/sealman-ems/pkg/telemetry"
	"github.com/eclipse-sealman/sealman-ems/pkg/vpnsuite"
)

var (
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	configPath = flag.String("config", "ems.yaml", "Config file path")
	dbPath     = flag.String("db", "", "Database path (overrides config)")
	Version    = "dev"
)

// Server carries the shared dependencies of every handler. Per-request
// state (acting user, deny resolver) lives in the gin context.
type Server struct {
	db      *gorm.DB
	cfg     *config.Config
	logger  zerolog.Logger
	hasher  auth.TokenHasher
	limiter *RateLimiter
	suite   *vpnsuite.Client
	health  *health.Checker
	started time.Time
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalLog := zerolog.New(os.Stderr)
		fatalLog.Fatal().Err(err).Msg("failed to load config")
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *dbPath != "" {
		cfg.Server.DatabasePath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fatalLog := zerolog.New(os.Stderr)
		fatalLog.Fatal().Err(err).Msg("invalid config")
	}

	logger := newLogger(cfg.Logging)
	logger.Info().Str("version", Version).Msg("sealman-ems server starting")

	ctx := context.Background()
	provider, err := telemetry.SetupTracing(ctx, "sealman-ems", Version, cfg.Tracing.Endpoint, cfg.Tracing.Insecure, cfg.Tracing.SampleRatio)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()
	if cfg.Tracing.LogSpans {
		provider.RegisterSpanProcessor(telemetry.NewLoggingSpanProcessor(logger))
	}

	db, err := gorm.Open(sqlite.Open(cfg.Server.DatabasePath), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}

	if err := db.AutoMigrate(
		&model.AccessTag{},
		&model.User{},
		&model.UserDeviceType{},
		&model.DeviceType{},
		&model.DeviceTypeCertificateType{},
		&model.DeviceTypeSecret{},
		&model.Device{},
		&model.DeviceEndpointDevice{},
		&model.DeviceSecret{},
		&model.CertificateType{},
		&model.Certificate{},
		&model.Template{},
		&model.TemplateVersion{},
		&model.Config{},
		&model.Firmware{},
		&model.VpnConnection{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate schema")
	}

	started := time.Now()
	var suite *vpnsuite.Client
	if cfg.VpnSuite.Endpoint != "" && !cfg.VpnSuite.Blocked {
		suite = vpnsuite.NewClient(cfg.VpnSuite.Endpoint, logger)
	}

	srv := &Server{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		hasher:  auth.NewTokenHasher([]byte(cfg.Server.TokenSalt)),
		limiter: NewRateLimiter(),
		suite:   suite,
		health:  newHealthChecker(db, suite, cfg, started),
		started: started,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(withRequestContext(logger))

	srv.registerRoutes(r)

	logger.Info().Str("listen", cfg.Server.Listen).Msg("listening")
	if err := r.Run(cfg.Server.Listen); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func newHealthChecker(db *gorm.DB, suite *vpnsuite.Client, cfg *config.Config, started time.Time) *health.Checker {
	var pinger health.SuitePinger
	if suite != nil {
		pinger = suite
	}
	return health.NewChecker(db, pinger, cfg.VpnSuite.Blocked, cfg.MaintenanceMode, Version, started)
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.HumanReadable && !cfg.JSON {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/v1/health", s.handleHealth)

	api := r.Group("/", s.requireUser)

	admin := s.requireRole(security.RoleAdmin)
	api.GET("/v1/users/me", s.handleCurrentUser)
	api.GET("/v1/users/me/certificates", s.handleCurrentUserCertificates)
	api.GET("/v1/users", admin, s.listUsers)
	api.GET("/v1/users/:id", admin, s.getUser)
	api.POST("/v1/users/:id/enable", admin, s.enableUser)
	api.POST("/v1/users/:id/disable", admin, s.disableUser)
	api.POST("/v1/users/:id/reset-totp", admin, s.resetUserTotp)
	api.POST("/v1/users/:id/reset-login-attempts", admin, s.resetUserLoginAttempts)

	api.GET("/v1/devices", s.listDevices)
	api.GET("/v1/devices/:id", s.getDevice)
	api.POST("/v1/devices/:id/enable", s.enableDevice)
	api.POST("/v1/devices/:id/disable", s.disableDevice)

	api.POST("/v1/devices/:id/vpn/open", s.rateLimitedByUser("vpn-open", 30, time.Minute, s.openDeviceVpn))
	api.POST("/v1/devices/:id/vpn/open-all", s.rateLimitedByUser("vpn-open", 30, time.Minute, s.openAllDeviceVpn))
	api.POST("/v1/devices/:id/vpn/close", s.closeDeviceVpn)
	api.POST("/v1/endpoint-devices/:id/vpn/open", s.rateLimitedByUser("vpn-open", 30, time.Minute, s.openEndpointDeviceVpn))
	api.POST("/v1/endpoint-devices/:id/vpn/close", s.closeEndpointDeviceVpn)
	api.GET("/v1/vpn/connections", s.listVpnConnections)
	api.POST("/v1/vpn/connections/:id/close", s.closeVpnConnection)
}
