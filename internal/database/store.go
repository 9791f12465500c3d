package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
	*Queries
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		Queries: New(pool),
	}
}

func (s *Store) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	q := New(tx)
	err = fn(q)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

// ApplyPointsByFragment sets points on matching submissions and refreshes the
// owners' totals in one transaction. It returns the number of submissions
// changed.
func (s *Store) ApplyPointsByFragment(ctx context.Context, fragment string, points int) (int64, error) {
	var affected int64
	err := s.ExecTx(ctx, func(q *Queries) error {
		creators, err := q.SetPointsByFragment(ctx, fragment, points)
		if err != nil {
			return err
		}
		affected = int64(len(creators))
		if affected == 0 {
			return nil
		}
		return q.RecalculateTotalPoints(ctx, uniqueIDs(creators))
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) GetPool() *pgxpool.Pool {
	return s.pool
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
