package api

import (
	"net/http"

	"challenge-server/internal/ledger"
)

type UpdatePointsRequest struct {
	Rows []ledger.PointsRow `json:"rows"`
}

// @Summary      Award points by file key fragment
// @Description  For each row, sets points on every submission whose file key contains file_key, then refreshes user totals. Rows apply independently; the first failure stops the batch.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        updatePointsRequest  body      UpdatePointsRequest  true  "Fragment/points pairs"
// @Success      200                  {object}  ledger.Result
// @Failure      400                  {object}  ledger.Result "Update Scores Fail"
// @Failure      401                  {object}  models.ErrorResponse
// @Failure      403                  {object}  models.ErrorResponse
// @Router       /admin/points [post]
func (s *Server) UpdatePointsHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdatePointsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res := s.ledger.ApplyPoints(r.Context(), req.Rows)
	if !res.OK() {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
