package driver

import "fmt"

// State represents driver's state
type State string

const (
	// StateClosed means that the driver has not been opened. Sensors can't
	// be started.
	StateClosed State = "closed"
	// StateOpened means that the driver is opened and no sensor is
	// streaming.
	StateOpened State = "opened"
	// StateRunning means that at least one sensor is streaming.
	StateRunning State = "running"
)

// transitions lists the states each state may go to.
var transitions = map[State][]State{
	StateClosed:  {StateClosed, StateOpened},
	StateOpened:  {StateClosed, StateRunning},
	StateRunning: {StateClosed, StateOpened, StateRunning},
}

// Update updates current state, s, to next. If the transition isn't allowed
// or f fails to execute, s will stay unchanged. Otherwise, s will be updated
// to next.
func (s *State) Update(next State, f func() error) error {
	allowed := false
	for _, to := range transitions[*s] {
		if to == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("invalid state: driver can't go from %s to %s", *s, next)
	}

	if err := f(); err != nil {
		return err
	}
	*s = next
	return nil
}
