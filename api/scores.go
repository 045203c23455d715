package api

import (
	"encoding/json"
	"net/http"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
)

// maxBodySize bounds the score submission body.
const maxBodySize = 1 << 10

type submitRequest struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("unable to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	records, err := s.board.TopScores(r.Context())
	if err != nil {
		log.WithError(err).Error("unable to read top scores")
		writeError(w, http.StatusServiceUnavailable, "leaderboard unavailable")
		return
	}
	if records == nil {
		records = []leaderboard.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleSubmitScore accepts the score and returns before it is written.
// Failed writes only show up in the log.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many submissions")
		return
	}

	req := submitRequest{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Score < 0 {
		writeError(w, http.StatusBadRequest, "score must not be negative")
		return
	}

	s.board.SubmitScore(req.Name, req.Score)
	writeJSON(w, http.StatusAccepted, submitRequest{
		Name:  leaderboard.NormalizeName(req.Name),
		Score: req.Score,
	})
}
