package server

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ravisabhani/live-poll-battle/internal/events"
	"github.com/ravisabhani/live-poll-battle/internal/wshub"
)

// handleWS upgrades the connection and runs its read loop. The connection ID
// is the participant identity: voting eligibility lives and dies with the
// socket, so a reconnect is a new participant.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if len(s.AllowedOrigins) == 1 && s.AllowedOrigins[0] == "*" {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = s.AllowedOrigins
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept")
		return
	}

	participantID := uuid.New().String()
	client := wshub.NewClient(participantID, conn)
	s.Hub.Track(client)
	if s.Metrics != nil {
		s.Metrics.ClientsConnected.Inc()
	}
	log.Debug().Str("participant", participantID).Msg("websocket connected")

	ctx := r.Context()
	go client.WritePump(ctx)

	defer func() {
		s.Hub.Remove(participantID)
		s.Sessions.HandleDisconnect(participantID)
		if s.Metrics != nil {
			s.Metrics.ClientsConnected.Dec()
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var ev events.ClientEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Debug().Err(err).Str("participant", participantID).Msg("malformed client event")
			continue
		}

		switch ev.Type {
		case events.TypeJoinRoom:
			if err := s.Sessions.HandleJoin(ev.RoomCode, participantID, ev.Username); err != nil {
				s.Hub.SendTo(participantID, events.ErrorRoom("Room not found."))
			}
		case events.TypeVote:
			s.Sessions.HandleVote(ev.RoomCode, participantID, ev.Option)
		default:
			log.Debug().Str("type", ev.Type).Msg("unknown client event type")
		}
	}
}
