package qkd

import "fmt"

// A State is a stage of a protocol run.
type State int

const (
	StateInit State = iota
	StateTransmitted
	StateMeasured
	StateSifted
	StateErrorEstimated
	StateAccepted
	StateAborted
)

var stateNames = [...]string{
	StateInit:           "INIT",
	StateTransmitted:    "TRANSMITTED",
	StateMeasured:       "MEASURED",
	StateSifted:         "SIFTED",
	StateErrorEstimated: "ERROR_ESTIMATED",
	StateAccepted:       "ACCEPTED",
	StateAborted:        "ABORTED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateAborted
}

var transitions = map[State][]State{
	StateInit:           {StateTransmitted},
	StateTransmitted:    {StateMeasured},
	StateMeasured:       {StateSifted},
	StateSifted:         {StateErrorEstimated},
	StateErrorEstimated: {StateAccepted, StateAborted},
}

// A stateMachine records the stages a run passes through. Runs are driven by
// straight-line code, so an illegal transition is a bug and panics.
type stateMachine struct {
	visited []State
}

func newStateMachine() *stateMachine {
	return &stateMachine{visited: []State{StateInit}}
}

func (m *stateMachine) current() State {
	return m.visited[len(m.visited)-1]
}

func (m *stateMachine) advance(to State) {
	from := m.current()
	for _, s := range transitions[from] {
		if s == to {
			m.visited = append(m.visited, to)
			return
		}
	}
	panic(fmt.Sprintf("qkd: illegal state transition %v -> %v", from, to))
}

func (m *stateMachine) history() []State {
	return append([]State(nil), m.visited...)
}
