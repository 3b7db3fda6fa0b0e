// Package main EcoMart Green Rescue API
//
// Order lifecycle, green rescue marketplace and environmental impact reports.
//
//	@title			EcoMart Green Rescue API
//	@version		1.0
//	@description	Cancelled orders become discounted green listings for nearby buyers
//
//	@contact.name	API Support
//	@contact.email	support@example.com
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8443
//	@BasePath	/
//	@schemes	https http
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"gorm.io/gorm"

	_ "ecomart/docs/swagger"
	"ecomart/internal/impact"
	"ecomart/internal/location"
	orderadapters "ecomart/internal/orders/adapters"
	orderapp "ecomart/internal/orders/application"
	"ecomart/internal/orders/domain"
	orderinfra "ecomart/internal/orders/infrastructure"
	"ecomart/internal/orders/ports"
	useradapters "ecomart/internal/users/adapters"
	userapp "ecomart/internal/users/application"
	userinfra "ecomart/internal/users/infrastructure"
	"ecomart/pkg/auth"
	"ecomart/pkg/config"
	"ecomart/pkg/db"
	"ecomart/pkg/discovery"
	"ecomart/pkg/events"
	grpcpkg "ecomart/pkg/grpc"
	"ecomart/pkg/kafka"
	"ecomart/pkg/logger"
	"ecomart/pkg/middleware"
	"ecomart/pkg/rabbitmq"
	pkgtls "ecomart/pkg/tls"
)

const (
	geocoderMaxFailures = 5
	geocoderCoolDown    = 30 * time.Second
	shutdownTimeout     = 10 * time.Second
)

func main() {
	cfg := config.LoadForService("ECOMART")

	log := logger.FromConfig(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	log.Info("starting ecomart service", zap.String("env", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	dbConn := openDatabase(cfg, log)
	defer db.Close(dbConn)

	userRepo := useradapters.NewPostgresUserRepository(dbConn)
	if err := userRepo.Migrate(); err != nil {
		log.Fatal("failed to migrate users", zap.Error(err))
	}
	if err := orderadapters.Migrate(dbConn); err != nil {
		log.Fatal("failed to migrate orders", zap.Error(err))
	}
	store := orderadapters.NewGormStore(dbConn)

	// Collaborators
	resolver, closeCache := newResolver(cfg, log)
	defer closeCache()
	narrator, closeNarrator := newNarrator(ctx, cfg, log)
	defer closeNarrator()

	// Messaging
	rabbitConn := connectRabbitMQ(cfg, log)
	if rabbitConn != nil {
		defer rabbitConn.Close()
	}
	publisher, closeSink := newEventPublisher(cfg, rabbitConn, log)
	defer closeSink()

	// Use cases
	userUseCase := userapp.NewUserUseCase(userRepo, log)
	orderUseCase := orderapp.NewOrderUseCase(
		store,
		domain.NewRandomRescuePolicy(nil),
		publisher,
		orderapp.OrderOptions{StrictProductSale: cfg.StrictProductSale},
		log,
	)
	greenUseCase := orderapp.NewGreenUseCase(store, resolver, publisher, cfg.NearbyRadiusKm, log)
	impactUseCase := orderapp.NewImpactUseCase(store, resolver, narrator, log)
	catalogUseCase := orderapp.NewCatalogUseCase(store, log)

	if rabbitConn != nil {
		startUserRegisteredConsumer(ctx, rabbitConn, userUseCase, log)
	}

	// HTTP
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required", zap.Error(auth.ErrMissingSecret))
	}
	authMW := middleware.Auth(auth.NewVerifier(cfg.JWTSecret))

	router := newRouter(cfg, log)
	api := router.Group("/api")
	orderinfra.NewHTTPHandler(orderUseCase, greenUseCase, impactUseCase, catalogUseCase, authMW).RegisterRoutes(api)
	userinfra.NewHTTPHandler(userUseCase, authMW).RegisterRoutes(api)

	// gRPC
	grpcServer := setupGRPCServer(cfg, log, orderinfra.NewGRPCServer(orderUseCase, greenUseCase, impactUseCase))
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen for gRPC", zap.Error(err))
	}
	go func() {
		log.Info("gRPC server listening on :" + cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("gRPC server error", zap.Error(err))
		}
	}()

	httpServer := startHTTPServer(cfg, log, otelhttp.NewHandler(router, cfg.ServiceName))

	deregister := registerWithConsul(cfg, log)
	defer deregister()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down servers...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown error", zap.Error(err))
	}

	log.Info("servers stopped")
}

func openDatabase(cfg *config.Config, log *logger.Logger) *gorm.DB {
	conn, err := db.NewConnection(db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Timeout:  cfg.DBTimeout,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	log.Info("connected to database")
	return conn
}

// newResolver builds the location resolver. Without GEOCODER_URL only the
// built-in tables are used; without REDIS_URL lookups are not cached.
func newResolver(cfg *config.Config, log *logger.Logger) (*location.Resolver, func()) {
	closer := func() {}
	if cfg.GeocoderURL == "" {
		log.Info("geocoder disabled, using built-in location tables")
		return location.NewResolver(nil, cfg.GeocoderTimeout, log), closer
	}

	var geocoder location.Geocoder = location.NewBreakerGeocoder(
		location.NewNominatimGeocoder(cfg.GeocoderURL, cfg.GeocoderAgent),
		geocoderMaxFailures,
		geocoderCoolDown,
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Warn("invalid REDIS_URL, geocode cache disabled", zap.Error(err))
		} else {
			client := redis.NewClient(opts)
			geocoder = location.NewCachedGeocoder(client, geocoder, cfg.GeocodeTTL, log)
			closer = func() { _ = client.Close() }
			log.Info("geocode cache enabled")
		}
	}

	return location.NewResolver(geocoder, cfg.GeocoderTimeout, log), closer
}

func newNarrator(ctx context.Context, cfg *config.Config, log *logger.Logger) (*impact.FallbackNarrator, func()) {
	if cfg.GeminiAPIKey == "" {
		log.Info("GEMINI_API_KEY not set, impact messages use the template")
		return impact.NewFallbackNarrator(nil, cfg.NarratorTimeout, log), func() {}
	}

	gemini, err := impact.NewGeminiNarrator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Warn("failed to create Gemini client, impact messages use the template", zap.Error(err))
		return impact.NewFallbackNarrator(nil, cfg.NarratorTimeout, log), func() {}
	}
	return impact.NewFallbackNarrator(gemini, cfg.NarratorTimeout, log), func() { _ = gemini.Close() }
}

func connectRabbitMQ(cfg *config.Config, log *logger.Logger) *rabbitmq.Connection {
	if cfg.RabbitMQURL == "" {
		return nil
	}
	conn, err := rabbitmq.NewConnection(cfg.RabbitMQURL, log)
	if err != nil {
		log.Warn("failed to connect to RabbitMQ", zap.Error(err))
		return nil
	}
	return conn
}

// newEventPublisher returns nil when events are disabled or the broker is
// unreachable. The interface value stays nil so use cases skip publishing.
func newEventPublisher(cfg *config.Config, rabbitConn *rabbitmq.Connection, log *logger.Logger) (ports.EventPublisher, func()) {
	noop := func() {}

	switch cfg.EventsBroker {
	case config.BrokerKafka:
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		log.Info("publishing events to Kafka", zap.String("topic", cfg.KafkaTopic))
		return orderadapters.NewEventPublisher(pub, log), func() { _ = pub.Close() }

	case config.BrokerRabbitMQ:
		if rabbitConn == nil {
			log.Warn("RabbitMQ unavailable, events will be disabled")
			return nil, noop
		}
		pub, err := rabbitmq.NewPublisher(rabbitConn, events.ExchangeOrders, log)
		if err != nil {
			log.Warn("failed to create publisher, events will be disabled", zap.Error(err))
			return nil, noop
		}
		return orderadapters.NewEventPublisher(pub, log), func() { _ = pub.Close() }

	default:
		log.Info("events disabled", zap.String("broker", cfg.EventsBroker))
		return nil, noop
	}
}

func startUserRegisteredConsumer(ctx context.Context, conn *rabbitmq.Connection, users *userapp.UserUseCase, log *logger.Logger) {
	consumer, err := useradapters.NewUserRegisteredConsumer(conn, users, log)
	if err != nil {
		log.Warn("failed to create user.registered consumer", zap.Error(err))
		return
	}
	if err := consumer.Start(ctx); err != nil {
		log.Warn("failed to start user.registered consumer", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, log *logger.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.TraceID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log, cfg.ExposeErrorDetails))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", health)
	router.GET("/api/health", health)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/swagger/index.html")
	})

	return router
}

func startHTTPServer(cfg *config.Config, log *logger.Logger, handler http.Handler) *http.Server {
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	}

	if !cfg.TLSEnabled {
		go func() {
			log.Info("HTTP server listening on http://localhost:" + cfg.HTTPPort)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal("HTTP server error", zap.Error(err))
			}
		}()
		return server
	}

	tlsConfig, err := pkgtls.ServerConfig(cfg.TLSCertFile, cfg.TLSKeyFile, "", false)
	if err != nil {
		log.Fatal("failed to load TLS config", zap.Error(err))
	}
	server.Addr = ":" + cfg.HTTPSPort
	server.TLSConfig = tlsConfig

	go func() {
		log.Info("HTTPS server listening on https://localhost:" + cfg.HTTPSPort)
		if err := server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTPS server error", zap.Error(err))
		}
	}()
	return server
}

func setupGRPCServer(cfg *config.Config, log *logger.Logger, service *orderinfra.GRPCServer) *grpc.Server {
	var opts []grpc.ServerOption

	opts = append(opts, grpc.UnaryInterceptor(grpcpkg.UnaryServerInterceptor(log, cfg.GRPCTimeout)))

	if cfg.GRPCMTLSEnabled {
		tlsConfig, err := pkgtls.ServerConfig(cfg.GRPCCertFile, cfg.GRPCKeyFile, cfg.TLSCAFile, true)
		if err != nil {
			log.Fatal("failed to load gRPC TLS config", zap.Error(err))
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsConfig)))
		log.Info("gRPC mTLS enabled")
	}

	server := grpc.NewServer(opts...)
	service.Register(server)
	return server
}

// registerWithConsul registers the HTTP endpoint when CONSUL_ADDR is set.
// The returned func deregisters it.
func registerWithConsul(cfg *config.Config, log *logger.Logger) func() {
	if cfg.ConsulAddr == "" {
		return func() {}
	}

	client, err := discovery.NewConsulClient(cfg.ConsulAddr)
	if err != nil {
		log.Warn("failed to create consul client", zap.Error(err))
		return func() {}
	}

	host, _ := os.Hostname()
	port := cfg.HTTPPort
	if cfg.TLSEnabled {
		port = cfg.HTTPSPort
	}
	id := cfg.ServiceName + "-" + host

	if err := client.Register(discovery.Registration{
		ID:      id,
		Name:    cfg.ServiceName,
		Address: host,
		Port:    port,
		Tags:    []string{"http", "grpc:" + cfg.GRPCPort},
	}); err != nil {
		log.Warn("failed to register with consul", zap.Error(err))
		return func() {}
	}
	log.Info("registered with consul", zap.String("service_id", id))

	return func() {
		if err := client.Deregister(id); err != nil {
			log.Warn("failed to deregister from consul", zap.Error(err))
		}
	}
}
