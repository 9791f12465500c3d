package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type Submission struct {
	ID        int64
	CreatorID int64
	Question  string
	FileKey   string
	Points    int
	Updates   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

const submissionColumns = `id, creator_id, question, file_key, points, updates, created_at, updated_at`

func scanSubmission(row pgx.Row, extra ...any) (*Submission, error) {
	var s Submission
	dest := append([]any{
		&s.ID,
		&s.CreatorID,
		&s.Question,
		&s.FileKey,
		&s.Points,
		&s.Updates,
		&s.CreatedAt,
		&s.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (q *Queries) GetSubmission(ctx context.Context, creatorID int64, question string) (*Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE creator_id = $1 AND question = $2`
	return scanSubmission(q.db.QueryRow(ctx, query, creatorID, question))
}

func (q *Queries) GetSubmissionByID(ctx context.Context, id int64) (*Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	return scanSubmission(q.db.QueryRow(ctx, query, id))
}

// GetSubmissionByFileKey returns the most recent submission pointing at key.
func (q *Queries) GetSubmissionByFileKey(ctx context.Context, fileKey string) (*Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE file_key = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return scanSubmission(q.db.QueryRow(ctx, query, fileKey))
}

func (q *Queries) ListSubmissionsByCreator(ctx context.Context, creatorID int64) ([]Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE creator_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := q.db.Query(ctx, query, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := []Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, *s)
	}

	return submissions, rows.Err()
}

type UpsertSubmissionParams struct {
	CreatorID  int64
	Question   string
	FileKey    string
	MaxUpdates int
}

// UpsertSubmission inserts a new submission or, when the (creator, question)
// pair already exists and is below MaxUpdates, replaces its file key and
// counts an update. It returns nil when the existing row is at the cap.
func (q *Queries) UpsertSubmission(ctx context.Context, arg UpsertSubmissionParams) (*Submission, bool, error) {
	query := `
		INSERT INTO submissions (creator_id, question, file_key)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT ` + ConstraintCreatorQuestion + ` DO UPDATE
		SET file_key = EXCLUDED.file_key,
			updates = submissions.updates + 1,
			updated_at = NOW()
		WHERE submissions.updates < $4
		RETURNING ` + submissionColumns + `, (xmax = 0) AS inserted
	`
	var inserted bool
	s, err := scanSubmission(
		q.db.QueryRow(ctx, query, arg.CreatorID, arg.Question, arg.FileKey, arg.MaxUpdates),
		&inserted,
	)
	if err != nil || s == nil {
		return nil, false, err
	}
	return s, inserted, nil
}

type UpdateSubmissionFileParams struct {
	ID         int64
	CreatorID  int64
	Question   string
	FileKey    string
	MaxUpdates int
}

// UpdateSubmissionFile returns nil when no row matched, either because it
// does not exist or because it already reached MaxUpdates.
func (q *Queries) UpdateSubmissionFile(ctx context.Context, arg UpdateSubmissionFileParams) (*Submission, error) {
	query := `
		UPDATE submissions
		SET file_key = $4, updates = updates + 1, updated_at = NOW()
		WHERE id = $1 AND creator_id = $2 AND question = $3 AND updates < $5
		RETURNING ` + submissionColumns
	return scanSubmission(q.db.QueryRow(ctx, query, arg.ID, arg.CreatorID, arg.Question, arg.FileKey, arg.MaxUpdates))
}

// SetPointsByFragment sets points on every submission whose file key
// contains fragment as a literal substring and returns the affected creators.
func (q *Queries) SetPointsByFragment(ctx context.Context, fragment string, points int) ([]int64, error) {
	query := `
		UPDATE submissions
		SET points = $2, updated_at = NOW()
		WHERE strpos(file_key, $1) > 0
		RETURNING creator_id
	`
	rows, err := q.db.Query(ctx, query, fragment, points)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creators []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		creators = append(creators, id)
	}

	return creators, rows.Err()
}

func (q *Queries) RecalculateTotalPoints(ctx context.Context, userIDs []int64) error {
	query := `
		UPDATE users u
		SET total_points = COALESCE((SELECT SUM(s.points) FROM submissions s WHERE s.creator_id = u.id), 0),
			updated_at = NOW()
		WHERE u.id = ANY($1)
	`
	_, err := q.db.Exec(ctx, query, userIDs)
	return err
}
