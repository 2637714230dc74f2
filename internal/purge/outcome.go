package purge

// ItemID identifies a remote file. It is opaque to this package.
type ItemID string

// State is the lifecycle position of a single item in a batch
type State int

const (
	StatePending State = iota
	StateInFlight
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result for one item. State is either StateSucceeded or
// StateFailed; Err is set only for failures.
type Outcome struct {
	Item  ItemID
	State State
	Err   error
}

// Succeeded reports whether the operation for the item completed without error
func (o Outcome) Succeeded() bool {
	return o.State == StateSucceeded
}

// Reason returns the failure text, or "" for a success
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Summary counts outcomes by terminal state
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Tally summarises a set of outcomes
func Tally(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
