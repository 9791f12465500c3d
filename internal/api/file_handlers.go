package api

import (
	"net/http"

	"challenge-server/internal/apperr"
	"challenge-server/internal/models"
	"challenge-server/internal/storage"

	"go.uber.org/zap"
)

const deleteFileField = "Delete File"

type UploadURLRequest struct {
	FileName string            `json:"file_name" example:"solution.py"`
	Path     string            `json:"path" example:"week1"`
	FileType string            `json:"file_type" example:"text/x-python"`
	Metadata map[string]string `json:"metadata"`
}

type ViewURLRequest struct {
	FileKey  string `json:"file_key,omitempty"`
	Question string `json:"question,omitempty" example:"q1"`
}

// @Summary      Get an upload URL
// @Description  Returns a pre-signed PUT URL valid for 120 seconds and the generated file key.
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        uploadURLRequest  body      UploadURLRequest  true  "File to upload"
// @Success      200               {object}  models.SignedURL
// @Failure      400               {object}  models.ErrorResponse
// @Failure      401               {object}  models.ErrorResponse
// @Failure      503               {object}  models.ErrorResponse "Could not sign"
// @Router       /files/upload-url [post]
func (s *Server) UploadURLHandler(w http.ResponseWriter, r *http.Request) {
	var req UploadURLRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.FileName == "" {
		s.writeError(w, r, apperr.New(apperr.CodeInvalid, "file_name", "file_name is required"))
		return
	}

	signed, err := s.files.GetUploadURL(r.Context(), storage.UploadRequest{
		FileName: req.FileName,
		Path:     req.Path,
		FileType: req.FileType,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, signed)
}

// @Summary      Get a view URL
// @Description  Returns a pre-signed GET URL for the caller's submission to a question, or for a file key the caller owns. Admins may view any submitted file.
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        viewURLRequest  body      ViewURLRequest  true  "Question or file key"
// @Success      200             {object}  models.SignedURL
// @Failure      401             {object}  models.ErrorResponse
// @Failure      404             {object}  models.ErrorResponse "No submission"
// @Failure      503             {object}  models.ErrorResponse "Could not sign"
// @Router       /files/view-url [post]
func (s *Server) ViewURLHandler(w http.ResponseWriter, r *http.Request) {
	var req ViewURLRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	uid := userID(r)
	isAdmin := false
	if req.FileKey != "" {
		var err error
		if isAdmin, err = s.gate.IsAdmin(r.Context()); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	submission, err := s.ledger.FindForView(r.Context(), uid, isAdmin, req.Question, req.FileKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	signed, err := s.files.GetViewURL(r.Context(), submission.FileKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, signed)
}

// @Summary      Delete a stored file
// @Description  Removes an object from the bucket, typically the file a submission update replaced. Storage failures are reported in the body, not as an HTTP error.
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        key  query     string  true  "File key"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse "Key belongs to another user's submission"
// @Router       /files [delete]
func (s *Server) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		s.writeError(w, r, apperr.New(apperr.CodeInvalid, "key", "key is required"))
		return
	}

	uid := userID(r)
	isAdmin, err := s.gate.IsAdmin(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.CanDeleteObject(r.Context(), uid, isAdmin, key); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.files.DeleteObject(r.Context(), key); err != nil {
		s.logger.Warn("failed to delete stored file", zap.String("key", key), zap.Int64("user_id", uid), zap.Error(err))
		writeJSON(w, http.StatusOK, models.ErrorResponse{Errors: []models.FieldError{
			{Field: deleteFileField, Message: "Delete failed."},
		}})
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: []models.FieldError{
		{Field: deleteFileField, Message: "Successfully deleted previous file."},
	}})
}
