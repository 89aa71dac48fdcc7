package poll

// Option is one of the two fixed poll choices.
type Option string

const (
	OptionA = Option("optionA")
	OptionB = Option("optionB")
)

// Valid reports whether o is one of the recognized options.
func (o Option) Valid() bool {
	return o == OptionA || o == OptionB
}

// Outcome is the result of a vote admission attempt.
type Outcome int

const (
	Accepted Outcome = iota
	RejectedInvalidOption
	RejectedTimeExpired
	RejectedAlreadyVoted
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedInvalidOption:
		return "invalid_option"
	case RejectedTimeExpired:
		return "time_expired"
	case RejectedAlreadyVoted:
		return "already_voted"
	}
	return "unknown"
}

// Snapshot is a point-in-time copy of the tally, safe to hand to broadcasts.
type Snapshot struct {
	OptionA int `json:"optionA"`
	OptionB int `json:"optionB"`
}
