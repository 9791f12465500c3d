package api

import (
	"context"

	"challenge-server/internal/accounts"
	"challenge-server/internal/auth"
	"challenge-server/internal/config"
	"challenge-server/internal/database"
	"challenge-server/internal/ledger"
	"challenge-server/internal/models"
	"challenge-server/internal/ranking"
	"challenge-server/internal/storage"

	"go.uber.org/zap"
)

type FileGateway interface {
	GetUploadURL(ctx context.Context, req storage.UploadRequest) (*models.SignedURL, error)
	GetViewURL(ctx context.Context, fileKey string) (*models.SignedURL, error)
	DeleteObject(ctx context.Context, fileKey string) error
}

// PingFunc checks one backing service for the health endpoint.
type PingFunc func(ctx context.Context) error

type Server struct {
	config   *config.Config
	store    *database.Store
	accounts *accounts.Service
	ledger   *ledger.Ledger
	ranking  *ranking.Engine
	files    FileGateway
	gate     auth.Gate
	checks   map[string]PingFunc
	logger   *zap.Logger
}

type Deps struct {
	Store    *database.Store
	Accounts *accounts.Service
	Ledger   *ledger.Ledger
	Ranking  *ranking.Engine
	Files    FileGateway
	Gate     auth.Gate
	Checks   map[string]PingFunc
	Logger   *zap.Logger
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	checks := deps.Checks
	if checks == nil {
		checks = map[string]PingFunc{}
	}
	if _, ok := checks["postgres"]; !ok && deps.Store != nil {
		checks["postgres"] = deps.Store.Ping
	}
	return &Server{
		config:   cfg,
		store:    deps.Store,
		accounts: deps.Accounts,
		ledger:   deps.Ledger,
		ranking:  deps.Ranking,
		files:    deps.Files,
		gate:     deps.Gate,
		checks:   checks,
		logger:   deps.Logger,
	}
}
