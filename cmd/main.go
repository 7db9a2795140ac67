package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/arga-sso/ssoauthority/internal/access"
	"github.com/arga-sso/ssoauthority/internal/cache"
	"github.com/arga-sso/ssoauthority/internal/db"
	"github.com/arga-sso/ssoauthority/internal/events"
	"github.com/arga-sso/ssoauthority/internal/httpapi"
	"github.com/arga-sso/ssoauthority/internal/identity"
	"github.com/arga-sso/ssoauthority/internal/logger"
	"github.com/arga-sso/ssoauthority/internal/middleware"
	"github.com/arga-sso/ssoauthority/internal/orchestrator"
	"github.com/arga-sso/ssoauthority/internal/rpcapi"
	"github.com/arga-sso/ssoauthority/internal/sessions"
	"github.com/arga-sso/ssoauthority/internal/ssosession"
	"github.com/arga-sso/ssoauthority/internal/tokens"
)

func main() {
	logger.Initialize(getEnv("LOG_LEVEL", "info"), getEnv("LOG_PRETTY", "false") == "true")
	log := logger.GetLogger()

	httpPort := getEnv("HTTP_PORT", "8000")
	rpcPort := getEnv("RPC_PORT", "9000")
	rateLimitEnabled := getEnv("RATE_LIMIT_ENABLED", "true") == "true"
	rateLimitRPM := getEnvInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 120)

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "ssoauthority")
	dbPassword := getEnv("DB_PASSWORD", "ssoauthority")
	dbName := getEnv("DB_NAME", "ssoauthority")
	dbSSLMode := getEnv("DB_SSL_MODE", "disable") // SECURITY: should be "require" in production

	log.Info().Msg("starting ssoauthority")

	log.Info().Msg("connecting to database")
	database, err := db.NewDatabase(db.Config{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
		SSLMode:  dbSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	log.Info().Msg("running database migrations")
	if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	log.Info().Msg("initializing redis cache")
	redisCache, err := cache.NewCache(cache.Config{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
		Enabled:  true,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to redis, continuing without caching")
		redisCache, _ = cache.NewCache(cache.Config{Enabled: false})
	}
	defer redisCache.Close()

	// SECURITY: the signing key pair is mandatory — there is no insecure
	// fallback, unlike the cache or the event publisher.
	privateKeyPath := os.Getenv("JWT_PRIVATE_KEY_PATH")
	publicKeyPath := os.Getenv("JWT_PUBLIC_KEY_PATH")
	if privateKeyPath == "" || publicKeyPath == "" {
		log.Fatal().Msg("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set")
	}
	privateKey, err := tokens.LoadPrivateKey(privateKeyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load JWT private key")
	}
	publicKey, err := tokens.LoadPublicKey(publicKeyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load JWT public key")
	}

	codec := tokens.NewCodec(privateKey, publicKey, tokens.Config{
		AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		RefreshTokenTTL: time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 60)) * 24 * time.Hour,
	})

	log.Info().Msg("initializing event publisher")
	eventPublisher, err := events.NewPublisher(events.Config{
		URL:      os.Getenv("NATS_URL"),
		User:     os.Getenv("NATS_USER"),
		Password: os.Getenv("NATS_PASSWORD"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize event publisher")
	}
	defer eventPublisher.Close()

	maxActiveSessions := getEnvInt("MAX_ACTIVE_SESSIONS", 5)
	ssoSessionTTL := codec.RefreshTokenTTL()

	users := db.NewUserStore(database)
	applications := db.NewApplicationStore(database)
	appSessions := sessions.NewStore(redisCache, codec.RefreshTokenTTL(), maxActiveSessions)
	ssoSessions := ssosession.NewStore(redisCache, ssoSessionTTL)
	gate := access.NewGate(applications)

	log.Info().Msg("configuring identity resolver")
	resolver, err := identity.NewResolver(context.Background(), users, identity.Config{
		Firebase: identity.BrokerConfig{
			IssuerURL:   os.Getenv("FIREBASE_ISSUER_URL"),
			ClientID:    os.Getenv("FIREBASE_PROJECT_ID"),
			RedirectURL: os.Getenv("FIREBASE_REDIRECT_URL"),
		},
		Google: identity.BrokerConfig{
			IssuerURL:    getEnv("GOOGLE_ISSUER_URL", "https://accounts.google.com"),
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure identity resolver")
	}

	orch := orchestrator.New(codec, appSessions, ssoSessions, resolver, gate, users, applications, eventPublisher)

	httpServer := runHTTPServer(log, httpPort, orch, codec, rateLimitEnabled, rateLimitRPM)
	grpcServer := runRPCServer(log, rpcPort, orch)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	shutdownTimeout := 30 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server forced to shutdown")
	}
	grpcServer.GracefulStop()
	log.Info().Msg("shutdown complete")
}

func runHTTPServer(log *zerolog.Logger, port string, orch *orchestrator.Orchestrator, codec *tokens.Codec, rateLimitEnabled bool, rateLimitRPM int) *http.Server {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(gin.Recovery())
	router.Use(middleware.StructuredLoggerWithConfigFunc(middleware.DefaultStructuredLoggerConfig()))
	router.Use(middleware.Timeout(middleware.DefaultTimeoutConfig()))
	router.Use(corsMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimiter(1 << 20)) // 1MB: auth bodies are small
	router.Use(middleware.GzipWithExclusions(middleware.BestSpeed, []string{"/.well-known/"}))
	router.Use(middleware.NewInputValidator().Middleware())

	if rateLimitEnabled {
		limiter := middleware.NewRateLimiter(float64(rateLimitRPM)/60.0, rateLimitRPM/4)
		router.Use(limiter.Middleware())
	}

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiBase := router.Group(getEnv("API_BASE_PATH", "/api/v1"))
	srv := httpapi.NewServer(orch, codec)
	srv.RegisterRoutes(apiBase)
	srv.RegisterWellKnown(router)

	httpSrv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		log.Info().Str("port", port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	return httpSrv
}

func runRPCServer(log *zerolog.Logger, port string, orch *orchestrator.Orchestrator) *grpc.Server {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind rpc listener")
	}

	grpcServer := grpc.NewServer()
	rpcapi.NewServer(orch).RegisterService(grpcServer)

	go func() {
		log.Info().Str("port", port).Msg("rpc server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("rpc server failed")
		}
	}()

	return grpcServer
}

func corsMiddleware() gin.HandlerFunc {
	allowedOriginsEnv := getEnv("CORS_ALLOWED_ORIGINS", "")
	var allowedOrigins []string
	if allowedOriginsEnv != "" {
		for _, origin := range strings.Split(allowedOriginsEnv, ",") {
			allowedOrigins = append(allowedOrigins, strings.TrimSpace(origin))
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Client-ID, X-Device-ID")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
