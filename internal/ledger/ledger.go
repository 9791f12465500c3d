package ledger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"challenge-server/internal/apperr"
	"challenge-server/internal/auth"
	"challenge-server/internal/database"
	"challenge-server/internal/metrics"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// MaxUpdates is how many times a submission may be replaced after the
// first upload.
const MaxUpdates = 3

const (
	fieldMaxSubmissions = "Max Submissions"
	fieldSignedURL      = "signedUrl"
	fieldSubmission     = "submission"
)

var ErrMaxUpdatesExceeded = errors.New("submission update limit reached")

type Repository interface {
	GetSubmission(ctx context.Context, creatorID int64, question string) (*database.Submission, error)
	GetSubmissionByID(ctx context.Context, id int64) (*database.Submission, error)
	GetSubmissionByFileKey(ctx context.Context, fileKey string) (*database.Submission, error)
	ListSubmissionsByCreator(ctx context.Context, creatorID int64) ([]database.Submission, error)
	UpsertSubmission(ctx context.Context, arg database.UpsertSubmissionParams) (*database.Submission, bool, error)
	UpdateSubmissionFile(ctx context.Context, arg database.UpdateSubmissionFileParams) (*database.Submission, error)
	ApplyPointsByFragment(ctx context.Context, fragment string, points int) (int64, error)
	LogEvent(ctx context.Context, userID int64, eventType string, payload interface{}) error
}

// Invalidator drops derived views that depend on submission points.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Ledger struct {
	repo        Repository
	invalidator Invalidator
	validate    *validator.Validate
	logger      *zap.Logger
}

func New(repo Repository, invalidator Invalidator, logger *zap.Logger) *Ledger {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Ledger{
		repo:        repo,
		invalidator: invalidator,
		validate:    v,
		logger:      logger,
	}
}

func maxUpdatesError() error {
	metrics.SubmissionsRejected.Inc()
	return apperr.Wrap(ErrMaxUpdatesExceeded, apperr.CodeInvalid, fieldMaxSubmissions,
		"You have exceeded the max number of submissions.")
}

type Existing struct {
	Existing   bool
	Submission *database.Submission
}

// CheckExisting tells the client whether its next upload for question is an
// update. A submission already at the cap is reported as an error.
func (l *Ledger) CheckExisting(ctx context.Context, userID int64, question string) (*Existing, error) {
	s, err := l.repo.GetSubmission(ctx, userID, question)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if s == nil {
		return &Existing{Existing: false}, nil
	}
	if s.Updates >= MaxUpdates {
		return nil, maxUpdatesError()
	}
	return &Existing{Existing: true, Submission: s}, nil
}

type RecordInput struct {
	Existing  bool   `json:"existing"`
	ID        int64  `json:"id"`
	CreatorID int64  `json:"creator_id"`
	Question  string `json:"question" validate:"required"`
	FileKey   string `json:"file_key" validate:"required"`
	Updates   *int   `json:"updates"`
}

// RecordOrUpdate stores the file the caller just uploaded for a question.
// The supplied Updates value only selects the update path; the stored count
// is always incremented by the datastore.
func (l *Ledger) RecordOrUpdate(ctx context.Context, userID int64, in RecordInput) (*database.Submission, error) {
	if err := l.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	if in.Existing && in.Updates != nil {
		return l.update(ctx, userID, in)
	}

	s, inserted, err := l.repo.UpsertSubmission(ctx, database.UpsertSubmissionParams{
		CreatorID:  userID,
		Question:   in.Question,
		FileKey:    in.FileKey,
		MaxUpdates: MaxUpdates,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert submission: %w", err)
	}
	if s == nil {
		return nil, maxUpdatesError()
	}

	if inserted {
		l.recorded(ctx, userID, database.EventSubmissionCreated, "created", s)
	} else {
		l.recorded(ctx, userID, database.EventSubmissionUpdated, "updated", s)
	}
	return s, nil
}

func (l *Ledger) update(ctx context.Context, userID int64, in RecordInput) (*database.Submission, error) {
	if in.CreatorID != userID {
		return nil, apperr.New(apperr.CodeForbidden, fieldSubmission, auth.MsgNotPermitted)
	}

	s, err := l.repo.UpdateSubmissionFile(ctx, database.UpdateSubmissionFileParams{
		ID:         in.ID,
		CreatorID:  userID,
		Question:   in.Question,
		FileKey:    in.FileKey,
		MaxUpdates: MaxUpdates,
	})
	if err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}

	if s == nil {
		current, err := l.repo.GetSubmissionByID(ctx, in.ID)
		if err != nil {
			return nil, fmt.Errorf("get submission: %w", err)
		}
		if current != nil && current.CreatorID == userID && current.Question == in.Question && current.Updates >= MaxUpdates {
			return nil, maxUpdatesError()
		}
		return nil, apperr.New(apperr.CodeNotFound, fieldSubmission, "Submission not found")
	}

	l.recorded(ctx, userID, database.EventSubmissionUpdated, "updated", s)
	return s, nil
}

func (l *Ledger) recorded(ctx context.Context, userID int64, eventType, kind string, s *database.Submission) {
	metrics.SubmissionsWritten.WithLabelValues(kind).Inc()

	payload := map[string]any{
		"submission_id": s.ID,
		"question":      s.Question,
		"file_key":      s.FileKey,
		"updates":       s.Updates,
	}
	if err := l.repo.LogEvent(ctx, userID, eventType, payload); err != nil {
		l.logger.Warn("failed to journal submission event",
			zap.Int64("user_id", userID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func (l *Ledger) ListForUser(ctx context.Context, userID int64) ([]database.Submission, error) {
	return l.repo.ListSubmissionsByCreator(ctx, userID)
}

// FindForView resolves the submission whose file the caller wants to read,
// either by one of the caller's questions or by file key. Only the owner or
// an admin may view a file by key.
func (l *Ledger) FindForView(ctx context.Context, userID int64, isAdmin bool, question, fileKey string) (*database.Submission, error) {
	var (
		s   *database.Submission
		err error
	)
	switch {
	case fileKey != "":
		s, err = l.repo.GetSubmissionByFileKey(ctx, fileKey)
		if s != nil && s.CreatorID != userID && !isAdmin {
			s = nil
		}
	case question != "":
		s, err = l.repo.GetSubmission(ctx, userID, question)
	default:
		return nil, apperr.New(apperr.CodeInvalid, fieldSignedURL, "Error: a question or file key is required")
	}
	if err != nil {
		return nil, fmt.Errorf("find submission: %w", err)
	}
	if s == nil {
		return nil, apperr.New(apperr.CodeNotFound, fieldSignedURL, "Error: could not find file for this submission")
	}
	return s, nil
}

// CanDeleteObject reports whether the caller may delete the stored object at
// fileKey. Only keys no submission points at may be removed, which covers
// uploads replaced by an update. Admins may delete anything.
func (l *Ledger) CanDeleteObject(ctx context.Context, userID int64, isAdmin bool, fileKey string) error {
	if isAdmin {
		return nil
	}
	s, err := l.repo.GetSubmissionByFileKey(ctx, fileKey)
	if err != nil {
		return fmt.Errorf("find submission: %w", err)
	}
	if s != nil {
		return apperr.New(apperr.CodeForbidden, "Delete File", auth.MsgNotPermitted)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Wrap(err, apperr.CodeInvalid, fe.Field(), fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return apperr.Wrap(err, apperr.CodeInvalid, "input", "Invalid input")
}
