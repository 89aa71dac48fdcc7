package rooms

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ravisabhani/live-poll-battle/internal/countdown"
	"github.com/ravisabhani/live-poll-battle/internal/poll"
)

// Room is one isolated voting session. The store is the sole owner;
// everything else reaches a room by resolving its code.
type Room struct {
	Code      string
	Ledger    *poll.Ledger
	Countdown *countdown.Countdown
	CreatedAt time.Time

	// mu serializes session operations (vote admission, snapshot capture)
	// so tally broadcasts leave in admission order.
	mu           sync.Mutex
	lastActivity time.Time
	clock        clockwork.Clock
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// Touch records activity for idle-expiry purposes. Callers hold the room lock.
func (r *Room) Touch() {
	r.lastActivity = r.clock.Now()
}

func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}
