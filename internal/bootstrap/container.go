package bootstrap

import (
	"fmt"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/nirmaan-tracker/nirmaan-api/internal/config"
	"github.com/nirmaan-tracker/nirmaan-api/internal/database"
	"github.com/nirmaan-tracker/nirmaan-api/internal/handlers"
	"github.com/nirmaan-tracker/nirmaan-api/internal/logger"
	"github.com/nirmaan-tracker/nirmaan-api/internal/realtime"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"github.com/nirmaan-tracker/nirmaan-api/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionMaxAge = 86400 * 7

func BuildContainer(configPath string) *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load(configPath)
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.LogLevel, cfg.LogFile)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	})

	// Redis, used by the relay and the session store. The client connects lazily.
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
		}), nil
	})

	do.Provide(inj, func(i *do.Injector) (sessions.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewSessionStore(cfg)
	})

	provideRepositories(inj)
	provideRealtime(inj)
	provideServices(inj)
	provideHandlers(inj)

	return inj
}

// NewSessionStore builds the cookie-backed or Redis-backed session store
// selected by SESSION_STORE.
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "redis":
		s, err := redisStore.NewStore(
			10,    // Redis pool size
			"tcp", // network type
			cfg.RedisAddr(),
			"", // username (empty for default user)
			cfg.RedisPassword,
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis session store: %w", err)
		}
		store = s
	case "cookie":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: 2, // Lax
	})
	return store, nil
}

func provideRepositories(inj *do.Injector) {
	do.Provide(inj, func(i *do.Injector) (repository.TaskRepository, error) {
		return repository.NewTaskRepository(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repository.CommentRepository, error) {
		return repository.NewCommentRepository(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repository.UserRepository, error) {
		return repository.NewUserRepository(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repository.LeadRepository, error) {
		return repository.NewLeadRepository(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repository.NotificationRepository, error) {
		return repository.NewNotificationRepository(do.MustInvoke[*gorm.DB](i)), nil
	})
}

func provideRealtime(inj *do.Injector) {
	do.Provide(inj, func(i *do.Injector) (*realtime.Hub, error) {
		return realtime.NewHub(do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(inj, func(i *do.Injector) (*realtime.RedisRelay, error) {
		return realtime.NewRedisRelay(
			do.MustInvoke[*redis.Client](i),
			do.MustInvoke[*realtime.Hub](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// With REALTIME_RELAY=redis every emit goes through Redis so all
	// instances deliver it; otherwise the local hub delivers directly.
	do.Provide(inj, func(i *do.Injector) (realtime.Emitter, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.RealtimeRelay == "redis" {
			return do.MustInvoke[*realtime.RedisRelay](i), nil
		}
		return do.MustInvoke[*realtime.Hub](i), nil
	})

	do.Provide(inj, func(i *do.Injector) (services.EventPublisher, error) {
		return realtime.NewBroadcaster(
			do.MustInvoke[realtime.Emitter](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(inj, func(i *do.Injector) (*realtime.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return realtime.NewServer(
			do.MustInvoke[*realtime.Hub](i),
			do.MustInvoke[realtime.Emitter](i),
			do.MustInvoke[repository.TaskRepository](i),
			cfg.Origins(),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

func provideServices(inj *do.Injector) {
	do.Provide(inj, func(i *do.Injector) (*services.TokenService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL()), nil
	})

	do.Provide(inj, func(i *do.Injector) (*services.AuthService, error) {
		return services.NewAuthService(
			do.MustInvoke[repository.UserRepository](i),
			do.MustInvoke[*services.TokenService](i),
		), nil
	})

	do.Provide(inj, func(i *do.Injector) (*services.NotificationService, error) {
		return services.NewNotificationService(
			do.MustInvoke[repository.NotificationRepository](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(inj, func(i *do.Injector) (*services.TaskService, error) {
		cfg := do.MustInvoke[*config.Config](i)

		// Task generation is disabled without an API key
		var aiService *services.AIService
		if cfg.OpenAIAPIKey != "" {
			aiService = services.NewAIService(cfg.OpenAIAPIKey)
		}

		return services.NewTaskService(
			do.MustInvoke[repository.TaskRepository](i),
			do.MustInvoke[repository.UserRepository](i),
			do.MustInvoke[repository.LeadRepository](i),
			do.MustInvoke[*services.NotificationService](i),
			do.MustInvoke[services.EventPublisher](i),
			aiService,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(inj, func(i *do.Injector) (*services.CommentService, error) {
		return services.NewCommentService(
			do.MustInvoke[repository.CommentRepository](i),
			do.MustInvoke[repository.TaskRepository](i),
			do.MustInvoke[*services.NotificationService](i),
			do.MustInvoke[services.EventPublisher](i),
		), nil
	})

	do.Provide(inj, func(i *do.Injector) (*services.UserService, error) {
		return services.NewUserService(
			do.MustInvoke[repository.UserRepository](i),
			do.MustInvoke[repository.TaskRepository](i),
		), nil
	})

	do.Provide(inj, func(i *do.Injector) (*services.LeadService, error) {
		return services.NewLeadService(
			do.MustInvoke[repository.LeadRepository](i),
			do.MustInvoke[repository.TaskRepository](i),
		), nil
	})
}

func provideHandlers(inj *do.Injector) {
	do.Provide(inj, func(i *do.Injector) (*handlers.AuthHandler, error) {
		return handlers.NewAuthHandler(do.MustInvoke[*services.AuthService](i), do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handlers.TaskHandler, error) {
		return handlers.NewTaskHandler(do.MustInvoke[*services.TaskService](i), do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handlers.CommentHandler, error) {
		return handlers.NewCommentHandler(do.MustInvoke[*services.CommentService](i), do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handlers.UserHandler, error) {
		return handlers.NewUserHandler(do.MustInvoke[*services.UserService](i), do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handlers.LeadHandler, error) {
		return handlers.NewLeadHandler(do.MustInvoke[*services.LeadService](i), do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handlers.NotificationHandler, error) {
		return handlers.NewNotificationHandler(do.MustInvoke[*services.NotificationService](i), do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handlers.SocketHandler, error) {
		return handlers.NewSocketHandler(do.MustInvoke[*realtime.Server](i), do.MustInvoke[*zap.Logger](i)), nil
	})
}
