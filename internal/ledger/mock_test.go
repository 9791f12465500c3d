package ledger

import (
	"context"

	"challenge-server/internal/database"

	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetSubmission(ctx context.Context, creatorID int64, question string) (*database.Submission, error) {
	args := m.Called(ctx, creatorID, question)
	s, _ := args.Get(0).(*database.Submission)
	return s, args.Error(1)
}

func (m *mockRepository) GetSubmissionByID(ctx context.Context, id int64) (*database.Submission, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*database.Submission)
	return s, args.Error(1)
}

func (m *mockRepository) GetSubmissionByFileKey(ctx context.Context, fileKey string) (*database.Submission, error) {
	args := m.Called(ctx, fileKey)
	s, _ := args.Get(0).(*database.Submission)
	return s, args.Error(1)
}

func (m *mockRepository) ListSubmissionsByCreator(ctx context.Context, creatorID int64) ([]database.Submission, error) {
	args := m.Called(ctx, creatorID)
	s, _ := args.Get(0).([]database.Submission)
	return s, args.Error(1)
}

func (m *mockRepository) UpsertSubmission(ctx context.Context, arg database.UpsertSubmissionParams) (*database.Submission, bool, error) {
	args := m.Called(ctx, arg)
	s, _ := args.Get(0).(*database.Submission)
	return s, args.Bool(1), args.Error(2)
}

func (m *mockRepository) UpdateSubmissionFile(ctx context.Context, arg database.UpdateSubmissionFileParams) (*database.Submission, error) {
	args := m.Called(ctx, arg)
	s, _ := args.Get(0).(*database.Submission)
	return s, args.Error(1)
}

func (m *mockRepository) ApplyPointsByFragment(ctx context.Context, fragment string, points int) (int64, error) {
	args := m.Called(ctx, fragment, points)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) LogEvent(ctx context.Context, userID int64, eventType string, payload interface{}) error {
	args := m.Called(ctx, userID, eventType, payload)
	return args.Error(0)
}

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
