// Package period derives the day ranges a recurring chore is active for.
//
// A period starts on a rule occurrence and ends the day before the next one,
// so consecutive periods never overlap. All values are date-only: midnight UTC
// of the calendar day.
package period

import (
	"fmt"
	"time"

	"github.com/dukerupert/chorewheel/internal/recurrence"
)

// Period is an inclusive range of days.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of days covered, counting both ends.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Contains reports whether the calendar day of t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	day := recurrence.Day(t)
	return !day.Before(p.Start) && !day.After(p.End)
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
}

// Current returns the period containing the most recent occurrence of rule on
// or before ref. It returns nil when the rule has no occurrence yet.
func Current(rule string, anchor, ref time.Time) (*Period, error) {
	rc, err := parse(rule, anchor)
	if err != nil {
		return nil, err
	}
	return CurrentOf(rc, ref)
}

// Next returns the period that follows cur, or nil once the rule is exhausted.
func Next(rule string, anchor time.Time, cur Period) (*Period, error) {
	rc, err := parse(rule, anchor)
	if err != nil {
		return nil, err
	}
	return NextOf(rc, cur)
}

// CurrentOf is Current for an already parsed recurrence.
func CurrentOf(rc recurrence.Recurrence, ref time.Time) (*Period, error) {
	start, ok, err := rc.Before(recurrence.Day(ref), true)
	if err != nil || !ok {
		return nil, err
	}
	return spanFrom(rc, start)
}

// NextOf is Next for an already parsed recurrence.
func NextOf(rc recurrence.Recurrence, cur Period) (*Period, error) {
	p, err := CurrentOf(rc, cur.End.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	// An exhausted rule keeps reporting its final period.
	if p == nil || !p.Start.After(cur.Start) {
		return nil, nil
	}
	return p, nil
}

// Upcoming lists up to n consecutive periods beginning with the one current at
// ref. When the rule has not started yet the list begins with its first period.
func Upcoming(rule string, anchor, ref time.Time, n int) ([]Period, error) {
	rc, err := parse(rule, anchor)
	if err != nil {
		return nil, err
	}

	p, err := CurrentOf(rc, ref)
	if err != nil {
		return nil, err
	}
	if p == nil {
		first, ok, err := rc.After(recurrence.Day(ref), false)
		if err != nil || !ok {
			return nil, err
		}
		if p, err = spanFrom(rc, first); err != nil {
			return nil, err
		}
	}

	var out []Period
	for p != nil && len(out) < n {
		out = append(out, *p)
		if p, err = NextOf(rc, *p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Within lists the periods that start in [from, to], in order.
func Within(rule string, anchor, from, to time.Time) ([]Period, error) {
	rc, err := parse(rule, anchor)
	if err != nil {
		return nil, err
	}

	starts, err := rc.Between(recurrence.Day(from), recurrence.Day(to).AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	out := make([]Period, 0, len(starts))
	for _, s := range starts {
		p, err := spanFrom(rc, s)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func spanFrom(rc recurrence.Recurrence, start time.Time) (*Period, error) {
	start = recurrence.Day(start)
	end := start
	next, ok, err := rc.After(start, false)
	if err != nil {
		return nil, err
	}
	if ok {
		end = recurrence.Day(next).AddDate(0, 0, -1)
	}
	if end.Before(start) {
		end = start
	}
	return &Period{Start: start, End: end}, nil
}

func parse(rule string, anchor time.Time) (recurrence.Recurrence, error) {
	r, err := recurrence.Parse(rule)
	if err != nil {
		return recurrence.Recurrence{}, err
	}
	return recurrence.New(r, anchor), nil
}
