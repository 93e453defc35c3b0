package router

import (
	"fmt"

	"github.com/anonto42/friendsbook/backend/internal/handlers"
	"github.com/anonto42/friendsbook/backend/internal/middleware"
	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/realtime"
	"github.com/anonto42/friendsbook/backend/internal/repositories"
	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/anonto42/friendsbook/backend/pkg/firebase"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries the process resources routes are built from. Redis, Archive,
// Firebase and Uploads are optional.
type Options struct {
	DB               *gorm.DB
	Redis            *redis.Client
	Archive          realtime.Archive
	Firebase         *firebase.App
	Uploads          handlers.UploadSigner
	IdentityProvider string
	JWTSecret        string
	RealtimeSecret   string
	CORSOrigins      []string
	Logger           *zap.Logger
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger *zap.Logger, corsOrigins []string) {
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins: corsOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, handlers.SocketIDHeader},
	}))
	logger.Debug("global middleware configured")
}

// SetupRoutes migrates the schema, builds the services and registers every route.
// The returned broker must be started with Run.
func SetupRoutes(e *echo.Echo, opts Options) (*realtime.Broker, error) {
	logger := opts.Logger

	if err := opts.DB.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("auto-migrations completed")

	e.GET("/health", handlers.HealthCheck)

	// --- Services ---
	store := repositories.NewStore(opts.DB)
	notifications := services.NewNotificationService(store, logger)
	friendships := services.NewFriendshipService(store, notifications, logger)
	content := services.NewContentService(store, notifications, logger)
	feeds := services.NewFeedService(store, logger)
	users := services.NewUserService(store, logger)
	conversations := services.NewConversationService(store, nil, logger)

	broker := realtime.NewBroker(
		realtime.NewAuthorizer(opts.RealtimeSecret, conversations),
		opts.Redis, opts.Archive, opts.CORSOrigins, logger,
	)
	conversations.SetPublisher(broker)
	notifications.AddPusher(broker)

	var verifier middleware.IDTokenVerifier
	if opts.Firebase != nil {
		verifier = opts.Firebase.AuthClient
		notifications.AddPusher(firebase.NewTopicPusher(opts.Firebase.Messaging))
	}

	// --- Identity gateway ---
	tokens := middleware.NewTokenIssuer(opts.JWTSecret)
	var authMiddleware echo.MiddlewareFunc
	switch opts.IdentityProvider {
	case "firebase":
		if verifier == nil {
			return nil, fmt.Errorf("firebase identity provider selected but firebase is not configured")
		}
		authMiddleware = middleware.FirebaseAuthMiddleware(verifier, users)
	default:
		authMiddleware = middleware.JWTAuthMiddleware(tokens)
	}

	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(verifier, users, tokens).RegisterAuthRoutes(authGroup)

	api := e.Group("/api/v1")
	api.Use(authMiddleware)
	logger.Info("identity gateway configured", zap.String("provider", opts.IdentityProvider))

	handlers.NewUserHandler(users, friendships).RegisterProfileRoutes(api)
	handlers.NewFriendshipHandler(friendships).RegisterFriendshipRoutes(api)
	handlers.NewPostHandler(content).RegisterPostRoutes(api)
	handlers.NewLikeHandler(content).RegisterLikeRoutes(api)
	handlers.NewCommentHandler(content).RegisterCommentRoutes(api)
	handlers.NewFeedHandler(feeds).RegisterFeedRoutes(api)
	handlers.NewConversationHandler(conversations, feeds).RegisterConversationRoutes(api)
	handlers.NewNotificationHandler(notifications).RegisterNotificationRoutes(api)
	handlers.NewRealtimeHandler(broker, logger).RegisterRealtimeRoutes(api)
	handlers.NewUploadHandler(opts.Uploads).RegisterUploadRoutes(api)

	logger.Info("all routes configured", zap.Int("routes", len(e.Routes())))
	return broker, nil
}
