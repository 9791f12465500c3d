package api

import (
	"net/http"
	"strconv"
)

// @Summary      Leaderboard
// @Description  Top users by total points with competition ranking (ties share a rank). limit defaults to 10 and is capped at 100.
// @Tags         leaderboard
// @Produce      json
// @Param        limit  query     int  false  "Number of rows"
// @Success      200    {array}   models.LeaderboardRow
// @Failure      400    {object}  models.ErrorResponse
// @Failure      503    {object}  models.ErrorResponse "Ranking temporarily unavailable"
// @Router       /leaderboard [get]
func (s *Server) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeFieldError(w, http.StatusBadRequest, "limit", "Invalid 'limit' parameter, must be a number")
			return
		}
		limit = n
	}

	rows, err := s.ranking.TopScores(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rows)
}
