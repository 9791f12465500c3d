package api

import (
	"challenge-server/internal/database"
	"challenge-server/internal/ledger"
	"challenge-server/internal/models"
)

func toUser(u *database.User) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		TotalPoints: u.TotalPoints,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt,
	}
}

func toSubmission(s *database.Submission) models.Submission {
	return models.Submission{
		ID:        s.ID,
		CreatorID: s.CreatorID,
		Question:  s.Question,
		FileKey:   s.FileKey,
		Points:    s.Points,
		Updates:   s.Updates,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toSubmissions(rows []database.Submission) []models.Submission {
	out := make([]models.Submission, 0, len(rows))
	for i := range rows {
		out = append(out, toSubmission(&rows[i]))
	}
	return out
}

func toExisting(e *ledger.Existing) models.ExistingSubmission {
	out := models.ExistingSubmission{Existing: e.Existing}
	if e.Submission != nil {
		out.Submission = &models.SubmissionRef{
			ID:        e.Submission.ID,
			CreatorID: e.Submission.CreatorID,
			Updates:   e.Submission.Updates,
			FileKey:   e.Submission.FileKey,
		}
	}
	return out
}

func toSessions(rows []database.Session) []models.Session {
	out := make([]models.Session, 0, len(rows))
	for _, s := range rows {
		out = append(out, models.Session{
			ID:        s.ID,
			UserAgent: s.UserAgent,
			ClientIP:  s.ClientIP,
			ExpiresAt: s.ExpiresAt,
			CreatedAt: s.CreatedAt,
		})
	}
	return out
}

func toEvents(rows []database.Event) []models.Event {
	out := make([]models.Event, 0, len(rows))
	for _, e := range rows {
		out = append(out, models.Event{
			ID:        e.ID,
			EventType: e.EventType,
			EventTime: e.EventTime,
			Payload:   e.Payload,
		})
	}
	return out
}
