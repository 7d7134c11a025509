package driver

import (
	"errors"
	"testing"
)

var noop = func() error { return nil }

func TestUpdate1(t *testing.T) {
	s := StateClosed
	s.Update(StateOpened, noop)

	if s != StateOpened {
		t.Fatalf("expected %s, got %s", StateOpened, s)
	}

	s.Update(StateClosed, noop)

	if s != StateClosed {
		t.Fatalf("expected %s, got %s", StateClosed, s)
	}

	s.Update(StateOpened, noop)

	if s != StateOpened {
		t.Fatalf("expected %s, got %s", StateOpened, s)
	}
}

func TestUpdateInvalid(t *testing.T) {
	testCases := map[string]struct {
		from, to State
	}{
		"RunClosed":  {from: StateClosed, to: StateRunning},
		"OpenOpened": {from: StateOpened, to: StateOpened},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			s := tc.from
			called := false
			err := s.Update(tc.to, func() error { called = true; return nil })
			if err == nil {
				t.Fatal("expected an error")
			}
			if called {
				t.Error("f must not run on an invalid transition")
			}
			if s != tc.from {
				t.Errorf("expected %s, got %s", tc.from, s)
			}
		})
	}
}

func TestUpdateFailure(t *testing.T) {
	errOpen := errors.New("failed to open")
	s := StateClosed
	if err := s.Update(StateOpened, func() error { return errOpen }); err != errOpen {
		t.Fatalf("expected %v, got %v", errOpen, err)
	}
	if s != StateClosed {
		t.Fatalf("expected %s, got %s", StateClosed, s)
	}
}
