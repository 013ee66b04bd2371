package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/examenv-backend/internal/config"
	"github.com/stemsi/examenv-backend/internal/database"
	"github.com/stemsi/examenv-backend/internal/logger"
	"github.com/stemsi/examenv-backend/internal/repository"
	"github.com/stemsi/examenv-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	var userFlag string
	flag.StringVar(&userFlag, "user", "", "ID of the user to issue the token for")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	// Logs go to stderr so stdout carries only the token.
	log := logger.Setup(cfg.LogLevel, "json", "").Output(os.Stderr)

	// ─── CLI Input ─────────────────────────────────────────────────────
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if userFlag == "" && interactive {
		fmt.Fprint(os.Stderr, "Enter User ID: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		userFlag = strings.TrimSpace(line)
	}
	if userFlag == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required")
		flag.Usage()
		os.Exit(2)
	}
	userID, err := uuid.Parse(userFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid user id %q\n", userFlag)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Issue Token ───────────────────────────────────────────────────
	authService := service.NewAuthService(
		cfg,
		repository.NewAuthorizationTokenRepository(pool),
		repository.NewUserRepository(pool),
		log,
	)
	token, err := authService.IssueToken(ctx, userID)
	if err != nil {
		log.Fatal().Err(err).Str("user_id", userID.String()).Msg("Failed to issue token")
	}

	if interactive {
		fmt.Fprintf(os.Stderr, "\nToken for user %s (valid for %s):\n", userID, cfg.ExamTokenExpiry)
	}
	fmt.Println(token)
}
