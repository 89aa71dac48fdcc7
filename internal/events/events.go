package events

import (
	"github.com/ravisabhani/live-poll-battle/internal/poll"
)

// Event type identifiers, matching the socket protocol clients speak.
const (
	TypeJoinRoom     = "join-room"
	TypeVote         = "vote"
	TypeVotesUpdated = "votes-updated"
	TypeTimer        = "timer"
	TypeErrorRoom    = "error-room"
)

// ClientEvent is the JSON structure received from clients.
type ClientEvent struct {
	Type     string      `json:"type"`
	RoomCode string      `json:"roomCode,omitempty"`
	Username string      `json:"username,omitempty"`
	Option   poll.Option `json:"option,omitempty"`
}

// ServerEvent is the JSON structure sent to clients. Exactly one payload
// field is set, depending on Type.
type ServerEvent struct {
	Type             string         `json:"type"`
	Votes            *poll.Snapshot `json:"votes,omitempty"`
	RemainingSeconds *int           `json:"remainingSeconds,omitempty"`
	Message          string         `json:"message,omitempty"`
}

// VotesUpdated builds the room-wide tally snapshot event.
func VotesUpdated(snap poll.Snapshot) ServerEvent {
	return ServerEvent{Type: TypeVotesUpdated, Votes: &snap}
}

// Timer builds the once-per-second countdown event.
func Timer(remaining int) ServerEvent {
	return ServerEvent{Type: TypeTimer, RemainingSeconds: &remaining}
}

// ErrorRoom builds the join-failure event, delivered to the requester only.
func ErrorRoom(message string) ServerEvent {
	return ServerEvent{Type: TypeErrorRoom, Message: message}
}
