package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := accounts.SimpleConfig{
		SigningKey: envOr("ACCOUNTS_SIGNING_KEY", "dev-signing-key-change-me"),
		Issuer:     envOr("ACCOUNTS_ISSUER", "go-accounts"),
	}

	db, err := openDatabase(envOr("ACCOUNTS_DSN", "file:accounts.db?cache=shared&_pragma=foreign_keys(1)"))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := createTables(ctx, db); err != nil {
		return err
	}

	repo := accounts.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	userProvider := accounts.NewUserProvider(repo.Users())
	tokens := accounts.NewTokenService(cfg, repo.Revocations(), nil)

	httpAuth, err := accounts.NewHTTPAuthenticator(tokens, cfg)
	if err != nil {
		return err
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
			AppName:       "go-accounts",
		}))
	})

	accounts.RegisterAuthRoutes(srv.Router().Group("/"),
		accounts.WithControllerConfig(cfg),
		accounts.WithControllerRepo(repo),
		accounts.WithControllerProvider(userProvider),
		accounts.WithControllerTokens(tokens),
		accounts.WithControllerAuther(httpAuth),
	)

	srv.Serve(envOr("ACCOUNTS_ADDR", ":8572"))

	WaitExitSignal()

	return nil
}

func openDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func createTables(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*accounts.User)(nil),
		(*accounts.RevokedToken)(nil),
		(*accounts.NewsletterSubscriber)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
