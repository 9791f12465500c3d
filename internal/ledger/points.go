package ledger

import (
	"context"
	"fmt"
	"strings"

	"challenge-server/internal/metrics"

	"go.uber.org/zap"
)

const (
	fieldPointsSuccess = "Update Scores Success"
	fieldPointsFail    = "Update Scores Fail"
)

type PointsRow struct {
	FileKey string `json:"file_key" validate:"required"`
	Points  int    `json:"points" validate:"gte=0"`
}

type pointsBatch struct {
	Rows []PointsRow `json:"rows" validate:"required,min=1,dive"`
}

// Result is the aggregate outcome of a bulk points update.
type Result struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (r Result) OK() bool { return r.Field == fieldPointsSuccess }

func pointsFailure(reason string) Result {
	metrics.PointsUpdates.WithLabelValues("fail").Inc()
	return Result{Field: fieldPointsFail, Message: "Failed to update scores: " + reason}
}

// ApplyPoints sets points on every submission whose file key contains the
// row's FileKey fragment. Each row commits on its own; the first failing row
// stops the batch and leaves earlier rows applied.
func (l *Ledger) ApplyPoints(ctx context.Context, rows []PointsRow) Result {
	if err := l.validate.Struct(pointsBatch{Rows: rows}); err != nil {
		return pointsFailure(err.Error())
	}

	var total int64
	for i, row := range rows {
		fragment := strings.TrimSpace(row.FileKey)
		if fragment == "" {
			l.invalidate(ctx, total)
			return pointsFailure(fmt.Sprintf("row %d: file key fragment is empty", i))
		}

		n, err := l.repo.ApplyPointsByFragment(ctx, fragment, row.Points)
		if err != nil {
			l.logger.Error("points update failed",
				zap.Int("row", i),
				zap.String("fragment", fragment),
				zap.Error(err),
			)
			l.invalidate(ctx, total)
			return pointsFailure(err.Error())
		}
		total += n
	}

	if total == 0 {
		return pointsFailure("No rows updated")
	}

	l.invalidate(ctx, total)

	metrics.PointsUpdates.WithLabelValues("success").Inc()
	l.logger.Info("points updated", zap.Int("rows", len(rows)), zap.Int64("submissions", total))
	return Result{Field: fieldPointsSuccess, Message: "Successfully updated user scores"}
}

// invalidate drops cached rankings once any row has changed points, including
// when a later row fails after earlier ones committed.
func (l *Ledger) invalidate(ctx context.Context, changed int64) {
	if l.invalidator == nil || changed == 0 {
		return
	}
	if err := l.invalidator.Invalidate(ctx); err != nil {
		l.logger.Warn("failed to invalidate leaderboard cache", zap.Error(err))
	}
}
