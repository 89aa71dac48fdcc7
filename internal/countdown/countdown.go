package countdown

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// State is the lifecycle of a room countdown. A countdown runs at most once:
// Dormant until the first Start, Running while ticking, Expired forever after.
type State int

const (
	Dormant State = iota
	Running
	Expired
)

func (s State) String() string {
	switch s {
	case Dormant:
		return "dormant"
	case Running:
		return "running"
	case Expired:
		return "expired"
	}
	return "unknown"
}

// Countdown decrements a per-room timer once per second and reports each
// remaining value to a tick callback. The clock is injected so tests can
// drive it deterministically.
type Countdown struct {
	mu        sync.Mutex
	state     State
	remaining int
	clock     clockwork.Clock
}

func New(seconds int, clock clockwork.Clock) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		state:     Dormant,
		remaining: seconds,
		clock:     clock,
	}
}

// Start begins ticking. Only the Dormant to Running transition takes effect;
// concurrent or repeated calls are no-ops, so a room never runs two timers.
// Each second the remaining value is decremented and passed to onTick,
// including the final 0. When 0 is reached the countdown becomes Expired,
// onExpire fires once, and the timer loop exits for good.
func (c *Countdown) Start(onTick func(remaining int), onExpire func()) {
	c.mu.Lock()
	if c.state != Dormant {
		c.mu.Unlock()
		return
	}
	c.state = Running
	c.mu.Unlock()

	go c.run(onTick, onExpire)
}

func (c *Countdown) run(onTick func(remaining int), onExpire func()) {
	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.Chan() {
		c.mu.Lock()
		if c.remaining > 0 {
			c.remaining--
		}
		remaining := c.remaining
		expired := remaining == 0
		if expired {
			c.state = Expired
		}
		c.mu.Unlock()

		fire(func() {
			if onTick != nil {
				onTick(remaining)
			}
		})

		if expired {
			fire(func() {
				if onExpire != nil {
					onExpire()
				}
			})
			return
		}
	}
}

// fire isolates the timer loop from callback panics so a broken consumer
// cannot stop subsequent ticks.
func fire(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("countdown callback panicked")
		}
	}()
	fn()
}

// Remaining returns the seconds left in the voting window.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
