package ranking

import (
	"context"

	"challenge-server/internal/apperr"
	"challenge-server/internal/database"
	"challenge-server/internal/metrics"
	"challenge-server/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var ErrUnavailable = apperr.New(apperr.CodeUnavailable, "leaderboard", "Ranking temporarily unavailable")

type Repository interface {
	ListTopUsers(ctx context.Context, limit int) ([]database.LeaderboardEntry, error)
}

type Cache interface {
	Get(ctx context.Context, limit int) ([]models.LeaderboardRow, bool, error)
	Set(ctx context.Context, limit int, rows []models.LeaderboardRow) error
}

type Engine struct {
	repo   Repository
	cache  Cache
	logger *zap.Logger
}

// NewEngine accepts a nil cache.
func NewEngine(repo Repository, cache Cache, logger *zap.Logger) *Engine {
	return &Engine{repo: repo, cache: cache, logger: logger}
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func (e *Engine) TopScores(ctx context.Context, limit int) ([]models.LeaderboardRow, error) {
	limit = ClampLimit(limit)

	if e.cache != nil {
		rows, hit, err := e.cache.Get(ctx, limit)
		switch {
		case err != nil:
			metrics.LeaderboardCache.WithLabelValues("error").Inc()
			e.logger.Warn("leaderboard cache read failed", zap.Error(err))
		case hit:
			metrics.LeaderboardCache.WithLabelValues("hit").Inc()
			return rows, nil
		default:
			metrics.LeaderboardCache.WithLabelValues("miss").Inc()
		}
	}

	entries, err := e.repo.ListTopUsers(ctx, limit)
	if err != nil {
		e.logger.Error("leaderboard query failed", zap.Int("limit", limit), zap.Error(err))
		return nil, ErrUnavailable
	}

	rows := AssignRanks(entries)

	if e.cache != nil {
		if err := e.cache.Set(ctx, limit, rows); err != nil {
			e.logger.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}

	return rows, nil
}

// AssignRanks applies standard competition ranking ("1224") to entries that
// are already sorted by points descending: equal points share a rank and the
// next distinct score skips past all of them.
func AssignRanks(entries []database.LeaderboardEntry) []models.LeaderboardRow {
	rows := make([]models.LeaderboardRow, 0, len(entries))

	rank := 0
	for i, e := range entries {
		if i == 0 || e.TotalPoints != entries[i-1].TotalPoints {
			rank = i + 1
		}
		rows = append(rows, models.LeaderboardRow{
			Username: e.Username,
			Points:   e.TotalPoints,
			Rank:     rank,
		})
	}

	return rows
}
