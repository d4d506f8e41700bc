// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/authkit/internal/config"
	"github.com/allisson/authkit/internal/database"
	"github.com/allisson/authkit/internal/idgen"
	"github.com/allisson/authkit/internal/metrics"
	sessionRepository "github.com/allisson/authkit/internal/session/repository"
	sessionUsecase "github.com/allisson/authkit/internal/session/usecase"
	tokenRepository "github.com/allisson/authkit/internal/token/repository"
	tokenService "github.com/allisson/authkit/internal/token/service"
	tokenUsecase "github.com/allisson/authkit/internal/token/usecase"
	userRepository "github.com/allisson/authkit/internal/user/repository"
	userUsecase "github.com/allisson/authkit/internal/user/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Observability
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Services
	idGenerator    idgen.Generator
	passwordHasher tokenService.SecretService
	secretHasher   tokenService.SecretService
	tokenService   tokenService.TokenService

	// Repositories
	tokenRepo   tokenUsecase.TokenRepository
	sessionRepo sessionUsecase.SessionRepository
	userRepo    userUsecase.UserRepository

	// Use Cases
	tokenUseCase   tokenUsecase.UseCase
	sessionUseCase sessionUsecase.UseCase
	userUseCase    userUsecase.UseCase

	// Initialization flags and mutex for thread-safety
	mu                 sync.Mutex
	loggerInit         sync.Once
	dbInit             sync.Once
	txManagerInit      sync.Once
	metricsInit        sync.Once
	idGeneratorInit    sync.Once
	passwordHasherInit sync.Once
	secretHasherInit   sync.Once
	tokenServiceInit   sync.Once
	tokenRepoInit      sync.Once
	sessionRepoInit    sync.Once
	userRepoInit       sync.Once
	tokenUseCaseInit   sync.Once
	sessionUseCaseInit sync.Once
	userUseCaseInit    sync.Once
	initErrors         map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if _, err := c.BusinessMetrics(); err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled in configuration a no-op recorder is returned.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.metricsInit.Do(func() {
		if !c.config.MetricsEnabled {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}

		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metrics"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}

		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}

		c.metricsProvider = provider
		c.businessMetrics = bm
	})
	if storedErr, exists := c.initErrors["metrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// IDGenerator returns the random identifier generator.
func (c *Container) IDGenerator() idgen.Generator {
	c.idGeneratorInit.Do(func() {
		c.idGenerator = idgen.NewGenerator()
	})
	return c.idGenerator
}

// PasswordHasher returns the secret service used for user passwords.
func (c *Container) PasswordHasher() (tokenService.SecretService, error) {
	c.passwordHasherInit.Do(func() {
		svc, err := tokenService.NewSecretService(c.config.PasswordHashPolicy)
		if err != nil {
			c.initErrors["passwordHasher"] = fmt.Errorf("failed to create password hasher: %w", err)
			return
		}
		c.passwordHasher = svc
	})
	if storedErr, exists := c.initErrors["passwordHasher"]; exists {
		return nil, storedErr
	}
	return c.passwordHasher, nil
}

// SecretHasher returns the secret service used for refresh token secrets.
func (c *Container) SecretHasher() (tokenService.SecretService, error) {
	c.secretHasherInit.Do(func() {
		svc, err := tokenService.NewSecretService(c.config.SecretHashPolicy)
		if err != nil {
			c.initErrors["secretHasher"] = fmt.Errorf("failed to create secret hasher: %w", err)
			return
		}
		c.secretHasher = svc
	})
	if storedErr, exists := c.initErrors["secretHasher"]; exists {
		return nil, storedErr
	}
	return c.secretHasher, nil
}

// TokenService returns the bearer token generator.
func (c *Container) TokenService() tokenService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = tokenService.NewTokenService()
	})
	return c.tokenService
}

// TokenRepository returns the auth token repository instance.
func (c *Container) TokenRepository() (tokenUsecase.TokenRepository, error) {
	c.tokenRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["tokenRepo"] = fmt.Errorf("failed to get database for token repository: %w", err)
			return
		}

		// Select the appropriate repository based on the database driver
		switch c.config.DBDriver {
		case "mysql":
			c.tokenRepo = tokenRepository.NewMySQLTokenRepository(db)
		case "postgres":
			c.tokenRepo = tokenRepository.NewPostgreSQLTokenRepository(db)
		default:
			c.initErrors["tokenRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["tokenRepo"]; exists {
		return nil, storedErr
	}
	return c.tokenRepo, nil
}

// SessionRepository returns the session repository instance.
func (c *Container) SessionRepository() (sessionUsecase.SessionRepository, error) {
	c.sessionRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["sessionRepo"] = fmt.Errorf("failed to get database for session repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.sessionRepo = sessionRepository.NewMySQLSessionRepository(db)
		case "postgres":
			c.sessionRepo = sessionRepository.NewPostgreSQLSessionRepository(db)
		default:
			c.initErrors["sessionRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["sessionRepo"]; exists {
		return nil, storedErr
	}
	return c.sessionRepo, nil
}

// UserRepository returns the user repository instance.
func (c *Container) UserRepository() (userUsecase.UserRepository, error) {
	c.userRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["userRepo"] = fmt.Errorf("failed to get database for user repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.userRepo = userRepository.NewMySQLUserRepository(db)
		case "postgres":
			c.userRepo = userRepository.NewPostgreSQLUserRepository(db)
		default:
			c.initErrors["userRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// TokenUseCase returns the token engine instance.
func (c *Container) TokenUseCase() (tokenUsecase.UseCase, error) {
	c.tokenUseCaseInit.Do(func() {
		useCase, err := c.initTokenUseCase()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
			return
		}
		c.tokenUseCase = useCase
	})
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// SessionUseCase returns the session engine instance.
func (c *Container) SessionUseCase() (sessionUsecase.UseCase, error) {
	c.sessionUseCaseInit.Do(func() {
		useCase, err := c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
			return
		}
		c.sessionUseCase = useCase
	})
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUseCase, nil
}

// UserUseCase returns the user engine instance.
func (c *Container) UserUseCase() (userUsecase.UseCase, error) {
	c.userUseCaseInit.Do(func() {
		useCase, err := c.initUserUseCase()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		c.userUseCase = useCase
	})
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTokenUseCase assembles the token engine with its metrics decorator.
func (c *Container) initTokenUseCase() (tokenUsecase.UseCase, error) {
	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, err
	}
	secretHasher, err := c.SecretHasher()
	if err != nil {
		return nil, err
	}
	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := tokenUsecase.NewTokenUseCase(
		c.config,
		c.IDGenerator(),
		tokenRepo,
		secretHasher,
		c.TokenService(),
		c.Logger(),
	)
	return tokenUsecase.NewTokenUseCaseWithMetrics(useCase, bm), nil
}

// initSessionUseCase assembles the session engine with its metrics decorator.
func (c *Container) initSessionUseCase() (sessionUsecase.UseCase, error) {
	sessionRepo, err := c.SessionRepository()
	if err != nil {
		return nil, err
	}
	tokenEngine, err := c.TokenUseCase()
	if err != nil {
		return nil, err
	}
	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := sessionUsecase.NewSessionUseCase(
		c.IDGenerator(),
		sessionRepo,
		tokenEngine,
		c.Logger(),
	)
	return sessionUsecase.NewSessionUseCaseWithMetrics(useCase, bm), nil
}

// initUserUseCase assembles the user engine with its metrics decorator.
func (c *Container) initUserUseCase() (userUsecase.UseCase, error) {
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, err
	}
	sessionEngine, err := c.SessionUseCase()
	if err != nil {
		return nil, err
	}
	tokenEngine, err := c.TokenUseCase()
	if err != nil {
		return nil, err
	}
	passwordHasher, err := c.PasswordHasher()
	if err != nil {
		return nil, err
	}
	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := userUsecase.NewUserUseCase(
		c.IDGenerator(),
		userRepo,
		sessionEngine,
		tokenEngine,
		passwordHasher,
		c.Logger(),
	)
	return userUsecase.NewUserUseCaseWithMetrics(useCase, bm), nil
}
