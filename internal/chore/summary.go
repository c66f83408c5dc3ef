package chore

import (
	"time"

	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/period"
	"github.com/dukerupert/chorewheel/internal/recurrence"
)

type State string

const (
	StateNotStarted  State = "not_started"
	StateActive      State = "active"
	StateExhausted   State = "exhausted"
	StateInvalidRule State = "invalid_rule"
)

const noUpcoming = "no upcoming occurrence"

// Summary is a chore together with where its schedule stands today.
type Summary struct {
	model.Chore
	State       State          `json:"state"`
	Schedule    string         `json:"schedule"`
	Current     *period.Period `json:"current_period"`
	Next        *period.Period `json:"next_period"`
	CurrentTurn *int64         `json:"current_assignee_id,omitempty"`
}

// Summarize derives the chore's schedule state for the given day.
func Summarize(c model.Chore, today time.Time) Summary {
	s := Summary{Chore: c}

	rule, err := recurrence.Parse(c.RecurrenceRule)
	if err == nil {
		err = rule.Validate(c.DTStart)
	}
	if err == nil {
		s.Schedule = rule.Describe()
		err = s.locate(recurrence.New(rule, c.DTStart), today)
	}
	if err != nil {
		s = Summary{Chore: c, State: StateInvalidRule, Schedule: noUpcoming}
	}
	return s
}

func (s *Summary) locate(rc recurrence.Recurrence, today time.Time) error {
	cur, err := period.CurrentOf(rc, today)
	if err != nil {
		return err
	}
	if cur == nil {
		s.State = StateNotStarted
		first, ok, err := rc.After(recurrence.Day(today), false)
		if err != nil {
			return err
		}
		if !ok {
			s.Schedule = noUpcoming
			return nil
		}
		s.Next, err = period.CurrentOf(rc, first)
		return err
	}

	next, err := period.NextOf(rc, *cur)
	if err != nil {
		return err
	}
	if next == nil && !cur.Contains(today) {
		// The final occurrence has passed.
		s.State = StateExhausted
		return nil
	}
	s.Current, s.Next = cur, next
	s.State = StateActive
	return nil
}

// WithAssignee records who holds the current period, if it has an instance.
func (s Summary) WithAssignee(instances []model.ChoreInstance) Summary {
	if s.Current == nil {
		return s
	}
	for _, inst := range instances {
		if inst.PeriodStart.Equal(s.Current.Start) {
			id := inst.AssignedMemberID
			s.CurrentTurn = &id
			break
		}
	}
	return s
}
