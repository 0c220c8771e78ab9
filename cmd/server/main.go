package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	users "github.com/goliatone/go-users"
	"github.com/goliatone/go-users/middleware/jwtware"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const blacklistSweepInterval = time.Hour

func main() {
	cfg := users.MustLoadConfig()

	lgr := setupLogger(cfg.Env)
	lgr.Info("starting user service", "env", cfg.Env)

	logger := &slogAdapter{lgr}

	db, err := setupDatabase(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("cannot open database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := createSchema(ctx, db); err != nil {
		log.Fatalf("cannot create schema: %v", err)
	}

	repos := users.NewRepositoryManager(db)
	repos.MustValidate()

	mailer := users.NewLogMailer(logger)
	auther := users.NewAuthenticator(repos, cfg).WithLogger(logger)
	admin := users.NewUserAdmin(repos).WithLogger(logger)

	authController := users.NewAuthController(repos, auther, mailer,
		users.WithAuthLogger(logger))
	userController := users.NewUserController(admin).WithLogger(logger)

	gateConfig := jwtware.Config{
		TokenValidator: tokenValidatorAdapter{auther.TokenService()},
		Blacklist:      repos.BlacklistedTokens(),
		UserLoader:     userLoader(repos),
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		AuthScheme:     cfg.GetAuthScheme(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) && fiberErr.Code == fiber.StatusForbidden {
				return users.ErrForbidden
			}
			return users.ErrUnauthorized
		},
	}

	gate := jwtware.New(gateConfig)
	adminGate := jwtware.RequireRole(string(users.RoleAdmin), gateConfig)
	adminOrOwnerGate := jwtware.RequireRoleOrOwner("id", gateConfig)

	app := fiber.New(fiber.Config{
		AppName:      "go-users",
		ErrorHandler: users.ErrorHandler(logger),
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	users.RegisterAuthRoutes(app, authController, gate)
	users.RegisterUserRoutes(app, userController, gate, adminGate, adminOrOwnerGate)

	go sweepBlacklist(ctx, repos.BlacklistedTokens(), lgr)

	go func() {
		if err := app.Listen(cfg.HTTPServer.Address); err != nil {
			lgr.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	lgr.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		lgr.Error("shutdown failed", "error", err)
	}
}

func setupDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func createSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*users.User)(nil),
		(*users.BlacklistedToken)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// sweepBlacklist drops expired denylist rows on an interval so the
// table does not grow without bound.
func sweepBlacklist(ctx context.Context, blacklist users.BlacklistedTokens, lgr *slog.Logger) {
	ticker := time.NewTicker(blacklistSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := blacklist.PruneExpired(ctx)
			if err != nil {
				lgr.Error("blacklist sweep failed", "error", err)
				continue
			}
			if pruned > 0 {
				lgr.Info("blacklist sweep", "pruned", pruned)
			}
		}
	}
}

// tokenValidatorAdapter bridges the users token service to the
// middleware's mirrored interface.
type tokenValidatorAdapter struct {
	ts users.TokenService
}

func (a tokenValidatorAdapter) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := a.ts.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// userLoader rejects tokens whose account has been deactivated since
// the token was issued.
func userLoader(repos users.RepositoryManager) jwtware.UserLoader {
	return func(ctx context.Context, claims jwtware.AuthClaims) (any, error) {
		id, err := uuid.Parse(claims.UserID())
		if err != nil {
			return nil, users.ErrUnauthorized
		}

		user, err := repos.Users().GetActiveByID(ctx, id)
		if err != nil {
			return nil, users.ErrUnauthorized
		}
		return user, nil
	}
}

type slogAdapter struct {
	lgr *slog.Logger
}

func (l *slogAdapter) Debug(format string, args ...any) { l.lgr.Debug(fmt.Sprintf(format, args...)) }
func (l *slogAdapter) Info(format string, args ...any)  { l.lgr.Info(fmt.Sprintf(format, args...)) }
func (l *slogAdapter) Warn(format string, args ...any)  { l.lgr.Warn(fmt.Sprintf(format, args...)) }
func (l *slogAdapter) Error(format string, args ...any) { l.lgr.Error(fmt.Sprintf(format, args...)) }

func setupLogger(env string) *slog.Logger {
	var lgr *slog.Logger

	switch env {
	case envLocal:
		lgr = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		lgr = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		lgr = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		lgr = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}
	return lgr
}
