package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/aiflow"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/auth"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/chat"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/handler"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/health"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/matching"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/notify"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SkillSwap API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, _ := zap.NewProduction()
		defer logger.Sync() //nolint:errcheck

		if err := runServe(logger); err != nil {
			logger.Error("server exited with error", zap.Error(err))
			return err
		}
		return nil
	},
}

func loadConfig(logger *zap.Logger) error {
	viper.SetConfigName("skillswap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.rate_limit_rps", 20)
	viper.SetDefault("server.frontend_url", "http://localhost:3000")
	viper.SetDefault("server.base_url", "")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "skillswap")
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.token_ttl_hours", 24)
	viper.SetDefault("chat.broker", "memory") // "memory" or "nats"
	viper.SetDefault("chat.nats_url", "nats://localhost:4222")
	viper.SetDefault("chat.meet_link_base", "https://meet.skillswap.dev/")
	viper.SetDefault("ai.gemini_api_key", "")
	viper.SetDefault("ai.model", aiflow.DefaultModel)
	viper.SetDefault("email.smtp_host", "")
	viper.SetDefault("email.smtp_port", 587)
	viper.SetDefault("email.smtp_username", "")
	viper.SetDefault("email.smtp_password", "")
	viper.SetDefault("email.from_address", "noreply@skillswap.dev")

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Warn("no config file found, using defaults and env vars")
	}
	return nil
}

func runServe(logger *zap.Logger) error {
	if err := loadConfig(logger); err != nil {
		return err
	}

	// ── Database ─────────────────────────────────────────────────────────────
	ctx := context.Background()
	db, err := store.New(ctx, viper.GetString("database.uri"), viper.GetString("database.name"))
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer db.Close(context.Background()) //nolint:errcheck

	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("connected to mongodb", zap.String("db", viper.GetString("database.name")))

	// ── Tokens ───────────────────────────────────────────────────────────────
	secret := viper.GetString("auth.jwt_secret")
	if secret == "" {
		return errors.New("auth.jwt_secret must be set (AUTH_JWT_SECRET)")
	}
	httpPort := viper.GetInt("server.port")
	baseURL := viper.GetString("server.base_url")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", httpPort)
	}
	tokenTTL := time.Duration(viper.GetInt("auth.token_ttl_hours")) * time.Hour
	tokens := auth.NewTokenIssuer(secret, baseURL, tokenTTL)

	// ── Health checker ───────────────────────────────────────────────────────
	checker := health.New(health.Config{}, logger)
	checker.AddProbe("mongo", db.Ping)

	// ── Chat broker ──────────────────────────────────────────────────────────
	var broker chat.Broker
	switch viper.GetString("chat.broker") {
	case "nats":
		natsBroker, err := chat.NewNATSBroker(viper.GetString("chat.nats_url"), logger)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer natsBroker.Close()
		broker = natsBroker
		checker.AddProbe("nats", natsBroker.Ping)
		logger.Info("chat broker: nats", zap.String("url", viper.GetString("chat.nats_url")))
	default:
		broker = chat.NewMemoryBroker()
		logger.Info("chat broker: in-memory (set chat.broker=nats for multi-instance fanout)")
	}

	// ── AI gateway ───────────────────────────────────────────────────────────
	var gateway aiflow.Gateway
	if apiKey := viper.GetString("ai.gemini_api_key"); apiKey != "" {
		gateway, err = aiflow.NewGeminiGateway(ctx, apiKey, viper.GetString("ai.model"), logger)
		if err != nil {
			return fmt.Errorf("create gemini gateway: %w", err)
		}
		logger.Info("ai gateway: gemini", zap.String("model", viper.GetString("ai.model")))
	} else {
		gateway = aiflow.NewNoopGateway(logger)
		logger.Info("ai gateway: noop (set ai.gemini_api_key to enable)")
	}

	// ── Wire up layers ───────────────────────────────────────────────────────
	profileRepo := profiles.NewRepository(db.Users())
	profileSvc := profiles.NewService(profileRepo, logger)
	authSvc := auth.NewService(profileSvc, logger)

	// ── Email notifications ──────────────────────────────────────────────────
	var mailer notify.Mailer
	if smtpHost := viper.GetString("email.smtp_host"); smtpHost != "" {
		mailer = notify.NewSMTPMailer(
			smtpHost,
			viper.GetInt("email.smtp_port"),
			viper.GetString("email.smtp_username"),
			viper.GetString("email.smtp_password"),
			viper.GetString("email.from_address"),
		)
		logger.Info("SMTP mailer configured", zap.String("host", smtpHost))
	} else {
		mailer = notify.NewNoopMailer(logger)
		logger.Info("mailer: noop (set email.smtp_host to enable SMTP)")
	}

	messageRepo := chat.NewMessageRepository(db.Messages())
	chatSvc := chat.NewService(messageRepo, broker, viper.GetString("chat.meet_link_base"), logger)
	chatSvc.SetNotifier(notify.NewScheduleNotifier(mailer, profileSvc, logger))
	aggregator := chat.NewAggregator(messageRepo, profileSvc)

	matchSvc := matching.NewService(profileSvc, gateway, logger)

	viper.SetDefault("oauth.google.redirect_url", baseURL+"/api/v1/auth/oauth/google/callback")
	oauthCfgs := map[string]handler.OAuthProviderConfig{
		"google": {
			ClientID:     viper.GetString("oauth.google.client_id"),
			ClientSecret: viper.GetString("oauth.google.client_secret"),
			RedirectURL:  viper.GetString("oauth.google.redirect_url"),
		},
	}

	authHandler := handler.NewAuthHandler(authSvc, tokens, oauthCfgs, logger)
	authHandler.SetFrontendURL(viper.GetString("server.frontend_url"))
	profileHandler := handler.NewProfileHandler(profileSvc, tokens, logger)
	matchHandler := handler.NewMatchHandler(matchSvc, tokens, logger)
	chatHandler := handler.NewChatHandler(chatSvc, aggregator, tokens, logger)
	aiHandler := handler.NewAIHandler(gateway, profileSvc, tokens, logger)

	// ── HTTP Router ──────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsOrigins := viper.GetStringSlice("server.cors_origins")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(corsOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Request body size limit (4 MB; certificate images arrive base64-encoded)
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 4<<20)
		c.Next()
	})

	rps := viper.GetInt("server.rate_limit_rps")
	if rps > 0 {
		router.Use(handler.RateLimiter(rps, rps*2))
	}

	router.Use(handler.PrometheusMiddleware())
	router.Use(requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		code := http.StatusOK
		status := "ok"
		if !checker.Healthy() {
			code = http.StatusServiceUnavailable
			status = "degraded"
		}
		c.JSON(code, gin.H{"status": status, "dependencies": checker.Snapshot()})
	})
	router.GET("/metrics", handler.MetricsHandler())

	v1 := router.Group("/api/v1")
	authHandler.Register(v1)
	profileHandler.Register(v1)
	matchHandler.Register(v1)
	chatHandler.Register(v1)
	aiHandler.Register(v1)

	// ── Serve ────────────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", httpPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	checkerStop := make(chan struct{})
	go checker.Start(checkerStop)

	go func() {
		logger.Info("skillswap API listening", zap.Int("port", httpPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down...")
	close(checkerStop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("skillswap stopped")
	return nil
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// requestLogger returns a Gin middleware that logs each request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
