// Command session mints a session token for a user id in the sessions
// table, for local development against AUTH_PROVIDER=sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/logger"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func main() {
	userID := flag.String("user", "", "user id to mint the session for")
	revoke := flag.String("revoke", "", "revoke this token instead of minting one")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(logger.Options{Service: "session", Env: cfg.AppEnv, Level: cfg.LogLevel, Output: os.Stderr})

	if cfg.PostgresURL == "" {
		log.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	sessions := auth.NewSessionStore(db)

	if *revoke != "" {
		if err := sessions.Revoke(ctx, *revoke); err != nil {
			log.Error("failed to revoke session", "error", err)
			os.Exit(1)
		}
		log.Info("session revoked")
		return
	}

	if *userID == "" {
		log.Error("usage: session -user <id> | -revoke <token>")
		os.Exit(1)
	}

	token, session, err := sessions.Create(ctx, *userID, cfg.SessionTTL)
	if err != nil {
		log.Error("failed to create session", "error", err)
		os.Exit(1)
	}

	log.Info("session created", "user_id", session.UserID, "expires_at", session.ExpiresAt)
	fmt.Println(token)
}
