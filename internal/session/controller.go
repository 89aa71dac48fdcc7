package session

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ravisabhani/live-poll-battle/internal/events"
	"github.com/ravisabhani/live-poll-battle/internal/metrics"
	"github.com/ravisabhani/live-poll-battle/internal/poll"
	"github.com/ravisabhani/live-poll-battle/internal/rooms"
)

// Broadcaster delivers events to the participants of a room. The WebSocket
// hub implements it; tests substitute a recorder.
type Broadcaster interface {
	JoinRoom(roomCode, participantID string)
	Broadcast(roomCode string, ev events.ServerEvent)
}

// Controller orchestrates joins, votes, and countdown relay for all rooms.
type Controller struct {
	store       *rooms.Store
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func New(store *rooms.Store, b Broadcaster, m *metrics.Metrics) *Controller {
	return &Controller{
		store:       store,
		broadcaster: b,
		metrics:     m,
		logger:      log.With().Str("component", "session").Logger(),
	}
}

// HandleJoin registers a participant with a room. An unknown code returns
// rooms.ErrNotFound for the transport to relay to the requester alone; on
// success the participant joins the broadcast group, the countdown starts if
// dormant, and the whole room receives a fresh tally snapshot.
func (c *Controller) HandleJoin(roomCode, participantID, username string) error {
	room, err := c.store.Get(roomCode)
	if err != nil {
		c.logger.Debug().Str("room", roomCode).Str("participant", participantID).
			Msg("join to unknown room")
		return err
	}

	c.broadcaster.JoinRoom(room.Code, participantID)

	room.Countdown.Start(
		func(remaining int) {
			c.broadcast(room.Code, events.Timer(remaining))
		},
		func() {
			c.logger.Info().Str("room", room.Code).Msg("voting window closed")
		},
	)

	room.Lock()
	room.Touch()
	snap := room.Ledger.Tally()
	c.broadcast(room.Code, events.VotesUpdated(snap))
	room.Unlock()

	c.logger.Info().Str("room", room.Code).Str("participant", participantID).
		Str("username", username).Msg("participant joined")
	return nil
}

// HandleVote admits a vote and, when accepted, broadcasts the new tally.
// Unknown rooms and rejected votes are dropped without feedback to the voter.
// The room lock is held across admission and snapshot capture so broadcasts
// leave in admission order.
func (c *Controller) HandleVote(roomCode, participantID string, option poll.Option) {
	room, err := c.store.Get(roomCode)
	if err != nil {
		c.logger.Debug().Str("room", roomCode).Str("participant", participantID).
			Msg("vote to unknown room ignored")
		return
	}

	room.Lock()
	defer room.Unlock()

	outcome := room.Ledger.Admit(participantID, option, room.Countdown.Remaining())
	if c.metrics != nil {
		c.metrics.Votes.WithLabelValues(outcome.String()).Inc()
	}
	if outcome != poll.Accepted {
		c.logger.Debug().Str("room", room.Code).Str("participant", participantID).
			Str("outcome", outcome.String()).Msg("vote rejected")
		return
	}

	room.Touch()
	c.broadcast(room.Code, events.VotesUpdated(room.Ledger.Tally()))
}

// HandleDisconnect is an extension hook; the transport already unregisters
// the connection, and eligibility is connection-scoped, so nothing to undo.
func (c *Controller) HandleDisconnect(participantID string) {
	c.logger.Debug().Str("participant", participantID).Msg("participant disconnected")
}

func (c *Controller) broadcast(roomCode string, ev events.ServerEvent) {
	if c.metrics != nil {
		c.metrics.Broadcasts.Inc()
	}
	c.broadcaster.Broadcast(roomCode, ev)
}
