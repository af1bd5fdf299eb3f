package schedule

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Status is the lifecycle state of a Schedule.
//
//	active -> completed  (automatic, once the end time has passed)
//	active -> cancelled  (manual)
//
// completed and cancelled are terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var (
	transitions = map[Status][]Status{
		StatusActive: {StatusCancelled, StatusCompleted},
	}
	// manualTransitions are the ones a user may request; completion is left to the cleanup job.
	manualTransitions = map[Status][]Status{
		StatusActive: {StatusCancelled},
	}
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusCancelled, StatusCompleted:
		return st, nil
	}
	return "", errors.Errorf("invalid status %q", s)
}

func (s Status) String() string { return string(s) }

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether `next` is a legal successor of `s`. Staying put is always legal.
func (s Status) CanTransitionTo(next Status) bool {
	return reachable(transitions, s, next)
}

// CanBeSetTo reports whether a user may move `s` to `next` through an update.
func (s Status) CanBeSetTo(next Status) bool {
	return reachable(manualTransitions, s, next)
}

func reachable(table map[Status][]Status, from, to Status) bool {
	if from == to {
		return true
	}
	for _, st := range table[from] {
		if st == to {
			return true
		}
	}
	return false
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	st, err := ParseStatus(str)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
