package validator

import "fmt"

type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is the controller's view of the validator. Reason is set only
// for StateError.
type Status struct {
	State  State  `json:"state"`
	Reason string `json:"reason,omitempty"`
}

func (s Status) String() string {
	if s.State == StateError {
		return fmt.Sprintf("Error(%s)", s.Reason)
	}
	return s.State.String()
}

// holdsProcess reports whether a process handle is expected to exist.
func (s Status) holdsProcess() bool {
	switch s.State {
	case StateStarting, StateRunning, StateStopping:
		return true
	}
	return false
}
