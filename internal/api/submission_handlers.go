package api

import (
	"net/http"

	"challenge-server/internal/apperr"
	"challenge-server/internal/ledger"
)

type RecordSubmissionRequest struct {
	Existing  bool   `json:"existing"`
	ID        int64  `json:"id" example:"7"`
	CreatorID int64  `json:"creator_id" example:"42"`
	Question  string `json:"question" example:"q1"`
	FileKey   string `json:"file_key" example:"week1/0b6f0d8e-2f7c-4c55-9b53-2a1f5e0c1d11-solution.py"`
	Updates   *int   `json:"updates" example:"1"`
}

// @Summary      List my submissions
// @Description  Returns every submission of the signed-in user with its awarded points.
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Submission
// @Failure      401  {object}  models.ErrorResponse
// @Router       /submissions [get]
func (s *Server) ListSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := s.ledger.ListForUser(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubmissions(rows))
}

// @Summary      Check for an existing submission
// @Description  Tells the client whether its next upload for a question updates an earlier one. Fails once the update limit is reached.
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        question  query     string  true  "Question identifier"
// @Success      200       {object}  models.ExistingSubmission
// @Failure      400       {object}  models.ErrorResponse "Max Submissions"
// @Failure      401       {object}  models.ErrorResponse
// @Router       /submissions/existing [get]
func (s *Server) CheckExistingSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("question")
	if question == "" {
		s.writeError(w, r, apperr.New(apperr.CodeInvalid, "question", "question is required"))
		return
	}

	existing, err := s.ledger.CheckExisting(r.Context(), userID(r), question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toExisting(existing))
}

// @Summary      Record or update a submission
// @Description  Stores the file key of an upload for a question. With existing=true and an updates value the referenced submission is updated; otherwise a submission is created, or counted as an update when one already exists. At most three updates are accepted.
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        recordSubmissionRequest  body      RecordSubmissionRequest  true  "Submission"
// @Success      200                      {object}  models.Submission
// @Failure      400                      {object}  models.ErrorResponse "Validation error or Max Submissions"
// @Failure      401                      {object}  models.ErrorResponse
// @Failure      403                      {object}  models.ErrorResponse "Not the creator"
// @Failure      404                      {object}  models.ErrorResponse
// @Router       /submissions [post]
func (s *Server) RecordSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	var req RecordSubmissionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	row, err := s.ledger.RecordOrUpdate(r.Context(), userID(r), ledger.RecordInput{
		Existing:  req.Existing,
		ID:        req.ID,
		CreatorID: req.CreatorID,
		Question:  req.Question,
		FileKey:   req.FileKey,
		Updates:   req.Updates,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubmission(row))
}
