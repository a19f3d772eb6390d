package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/TobiLight/simple-2fa/internal/infra/config"
	"github.com/TobiLight/simple-2fa/internal/infra/database"
	"github.com/TobiLight/simple-2fa/internal/infra/logger"
	"github.com/TobiLight/simple-2fa/internal/infra/security"
	postgresrepo "github.com/TobiLight/simple-2fa/internal/repository/postgres"
	"github.com/TobiLight/simple-2fa/internal/transport/http/middleware"
	"github.com/TobiLight/simple-2fa/internal/transport/http/routes"
	"github.com/TobiLight/simple-2fa/internal/usecase"
)

// Application bundles the HTTP engine with its infrastructure handles.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
}

// New wires configuration, infrastructure, repositories, and services into
// a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if err := database.RunMigrations(ctx, cfg.Postgres, log); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	hasher, err := security.NewArgon2Hasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	otpEngine, err := security.NewTOTPEngine(security.TOTPOptions{
		Issuer:       cfg.TOTP.Issuer,
		Period:       cfg.TOTP.Period,
		Skew:         cfg.TOTP.Skew,
		SecretLength: cfg.TOTP.SecretLength,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init totp engine: %w", err)
	}

	tokenIssuer, err := security.NewSessionTokenIssuer(cfg.JWT.Secret, cfg.App.Name)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	passwordValidator := security.DefaultPasswordValidator()

	authService := usecase.NewAuthService(cfg, repos.Accounts, hasher, otpEngine, tokenIssuer, passwordValidator, log)
	twoFactorService := usecase.NewTwoFactorService(repos.Accounts, otpEngine, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Metrics:  metrics,
		Database: pool,
		Services: routes.ServiceSet{
			Auth:      authService,
			TwoFactor: twoFactorService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting 2FA API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
			return
		}
		serverErrCh <- nil
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return <-serverErrCh
	case err := <-serverErrCh:
		return err
	}
}
