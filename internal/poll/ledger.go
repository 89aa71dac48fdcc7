package poll

import "sync"

// Ledger records which participants have voted in a room and the running
// tally. Eligibility is keyed by connection-scoped participant ID, so a
// reconnect counts as a fresh participant.
type Ledger struct {
	mu    sync.Mutex
	tally map[Option]int
	voted map[string]bool
}

func NewLedger() *Ledger {
	return &Ledger{
		tally: map[Option]int{OptionA: 0, OptionB: 0},
		voted: make(map[string]bool),
	}
}

// Admit applies the admission rule for a single vote attempt. Checks run in
// fixed precedence: option validity, then time window, then prior vote. Only
// an accepted vote mutates the ledger.
func (l *Ledger) Admit(participantID string, option Option, remainingSeconds int) Outcome {
	if !option.Valid() {
		return RejectedInvalidOption
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if remainingSeconds <= 0 {
		return RejectedTimeExpired
	}
	if l.voted[participantID] {
		return RejectedAlreadyVoted
	}

	l.tally[option]++
	l.voted[participantID] = true
	return Accepted
}

// Tally returns a copy of the current counts.
func (l *Ledger) Tally() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		OptionA: l.tally[OptionA],
		OptionB: l.tally[OptionB],
	}
}

func (l *Ledger) HasVoted(participantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.voted[participantID]
}

func (l *Ledger) VoterCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.voted)
}
