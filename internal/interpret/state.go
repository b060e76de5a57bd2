package interpret

import "fmt"

// State is one phase of an interpretation run.
type State string

const (
	StateIdle          State = "idle"
	StateCompiling     State = "compiling"
	StateAwaitingModel State = "awaiting_model"
	StateParsing       State = "parsing"
	StateValidated     State = "validated"
	StateFailed        State = "failed"
)

// transitions lists the legal next states per state. A retry drops back
// from parsing to awaiting_model; every state may fail.
var transitions = map[State][]State{
	StateIdle:          {StateCompiling},
	StateCompiling:     {StateAwaitingModel, StateFailed},
	StateAwaitingModel: {StateParsing, StateAwaitingModel, StateFailed},
	StateParsing:       {StateValidated, StateAwaitingModel, StateFailed},
	StateValidated:     {StateAwaitingModel},
	StateFailed:        {},
}

// machine tracks the run's phase and rejects transitions the lifecycle
// does not allow. Runs are single-goroutine, so no locking.
type machine struct {
	state State
}

func newMachine() *machine { return &machine{state: StateIdle} }

func (m *machine) to(next State) error {
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("interpret: illegal transition %s -> %s", m.state, next)
}

// mustTo panics on an illegal transition. Used where the caller already
// guarantees the order; a violation is a programming error.
func (m *machine) mustTo(next State) {
	if err := m.to(next); err != nil {
		panic(err)
	}
}
