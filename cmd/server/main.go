// @title           PTC Coding Challenge API
// @version         1.0
// @description     Accounts, submissions, scoring and leaderboard for the coding challenge.
// @host            localhost:4000
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"challenge-server/internal/accounts"
	"challenge-server/internal/api"
	"challenge-server/internal/auth"
	"challenge-server/internal/cache"
	"challenge-server/internal/config"
	"challenge-server/internal/database"
	"challenge-server/internal/ledger"
	"challenge-server/internal/logger"
	"challenge-server/internal/mail"
	"challenge-server/internal/ranking"
	"challenge-server/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	_ "challenge-server/docs"
)

const leaderboardCacheTTL = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load configuration: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("could not create logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DB.AutoMigrate {
		if err := database.Migrate("file://db/migrations", cfg.DB.Source); err != nil {
			lg.Fatal("could not apply migrations", zap.Error(err))
		}
		lg.Info("database migrations applied")
	}

	dbpool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		lg.Fatal("could not connect to database", zap.Error(err))
	}
	defer dbpool.Close()

	if err := dbpool.Ping(ctx); err != nil {
		lg.Fatal("could not ping database", zap.Error(err))
	}
	lg.Info("connected to database")

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		lg.Fatal("could not connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr))
	}
	defer rdb.Close()

	var mailer mail.Mailer
	if cfg.Mail.Host != "" {
		if mailer, err = mail.NewSMTPMailer(cfg.Mail); err != nil {
			lg.Fatal("could not create mailer", zap.Error(err))
		}
	} else {
		lg.Warn("mail host not configured, outgoing mail will only be logged")
		mailer = mail.NewLogMailer(lg)
	}

	s3Client, err := storage.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		lg.Fatal("could not create s3 client", zap.Error(err))
	}

	store := database.NewStore(dbpool)
	leaderboard := cache.NewLeaderboardCache(rdb, leaderboardCacheTTL)

	accountService, err := accounts.NewService(store, cache.NewResetTokens(rdb), mailer, accounts.TokenConfig{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	}, cfg.AppHost, lg)
	if err != nil {
		lg.Fatal("could not create account service", zap.Error(err))
	}

	server := api.NewServer(cfg, api.Deps{
		Store:    store,
		Accounts: accountService,
		Ledger:   ledger.New(store, leaderboard, lg),
		Ranking:  ranking.NewEngine(store, leaderboard, lg),
		Files:    storage.NewS3Gateway(s3Client, cfg.Storage.Bucket, cfg.Storage.URLExpiry),
		Gate:     auth.NewSessionGate(store),
		Checks: map[string]api.PingFunc{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Logger: lg,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("starting server", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
}
