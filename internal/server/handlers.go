package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ravisabhani/live-poll-battle/internal/metrics"
	"github.com/ravisabhani/live-poll-battle/internal/rooms"
	"github.com/ravisabhani/live-poll-battle/internal/session"
	"github.com/ravisabhani/live-poll-battle/internal/wshub"
)

type Server struct {
	Rooms          *rooms.Store
	Hub            *wshub.Hub
	Sessions       *session.Controller
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

type createRoomResponse struct {
	RoomCode string `json:"roomCode"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	room, err := s.Rooms.Create()
	if err != nil {
		log.Error().Err(err).Msg("create room")
		http.Error(w, "Failed to create room", http.StatusInternalServerError)
		return
	}
	if s.Metrics != nil {
		s.Metrics.RoomsCreated.Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(createRoomResponse{RoomCode: room.Code}); err != nil {
		log.Error().Err(err).Msg("encode create room response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
