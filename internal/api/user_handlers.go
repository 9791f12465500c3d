package api

import (
	"net/http"

	"challenge-server/internal/auth"
)

// @Summary      Get current user
// @Description  Returns the signed-in user, or null for anonymous requests.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Failure      500  {object}  models.ErrorResponse
// @Router       /me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	user, err := s.accounts.Me(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUser(user))
}
