package api

import (
	"net/http"
	"strconv"
)

// @Summary      Get new events
// @Description  Retrieves the caller's submission journal entries recorded after a given event ID, at most 100 per call.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        since_id  query     int  false  "The ID of the last event received. Omit or use 0 to get all events."
// @Success      200       {array}   models.Event
// @Failure      400       {object}  models.ErrorResponse
// @Failure      401       {object}  models.ErrorResponse
// @Router       /events [get]
func (s *Server) GetEventsHandler(w http.ResponseWriter, r *http.Request) {
	sinceStr := r.URL.Query().Get("since_id")
	if sinceStr == "" {
		sinceStr = "0"
	}

	sinceID, err := strconv.ParseInt(sinceStr, 10, 64)
	if err != nil {
		writeFieldError(w, http.StatusBadRequest, "since_id", "Invalid 'since_id' parameter, must be a number")
		return
	}

	events, err := s.store.GetEventsSince(r.Context(), userID(r), sinceID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEvents(events))
}
