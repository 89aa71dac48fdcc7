package rooms

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/ravisabhani/live-poll-battle/internal/countdown"
	"github.com/ravisabhani/live-poll-battle/internal/poll"
)

var (
	// ErrNotFound is returned when no active room has the requested code.
	ErrNotFound = errors.New("room not found")
	// ErrCodeSpace is returned when code generation keeps colliding.
	ErrCodeSpace = errors.New("failed to generate unique room code")
)

const sweepInterval = 1 * time.Minute

// Config controls room construction and retirement.
type Config struct {
	VoteDuration int           // countdown seconds for new rooms
	IdleTTL      time.Duration // how long an expired room may sit idle
}

// Store owns the mapping from room code to room state.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room
	cfg   Config
	clock clockwork.Clock
}

func New(cfg Config, clock clockwork.Clock) *Store {
	s := &Store{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		clock: clock,
	}
	go s.sweepIdle()
	return s
}

// Create allocates a room under a fresh code. Collisions retry rather than
// overwrite an active room.
func (s *Store) Create() (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Try up to 10 times to generate a unique code
	for i := 0; i < 10; i++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}

		now := s.clock.Now()
		room := &Room{
			Code:         code,
			Ledger:       poll.NewLedger(),
			Countdown:    countdown.New(s.cfg.VoteDuration, s.clock),
			CreatedAt:    now,
			lastActivity: now,
			clock:        s.clock,
		}
		s.rooms[code] = room
		log.Info().Str("room", code).Msg("room created")
		return room, nil
	}
	return nil, ErrCodeSpace
}

// Get resolves a room by code. Codes are case-insensitive on lookup.
func (s *Store) Get(code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[strings.ToUpper(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return room, nil
}

func (s *Store) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, strings.ToUpper(code))
}

func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

func (s *Store) sweepIdle() {
	ticker := s.clock.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.Chan() {
		s.sweepOnce()
	}
}

// sweepOnce retires rooms whose countdown has expired and which have seen no
// join or vote for the idle TTL. Running and dormant rooms are never swept.
func (s *Store) sweepOnce() {
	now := s.clock.Now()
	for _, room := range s.List() {
		if room.Countdown.State() != countdown.Expired {
			continue
		}
		if now.Sub(room.LastActivity()) <= s.cfg.IdleTTL {
			continue
		}
		s.Remove(room.Code)
		log.Info().Str("room", room.Code).Msg("idle room removed")
	}
}
