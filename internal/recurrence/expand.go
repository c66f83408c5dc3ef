package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// maxCandidates bounds how many raw dates a single query may examine after
// seeking. Hitting it is reported as ErrSearchLimit, never as exhaustion.
const maxCandidates = 200_000

// ErrSearchLimit means a query gave up before reaching its answer.
var ErrSearchLimit = errors.New("recurrence search limit exceeded")

// Recurrence binds a Rule to the anchor date its occurrences are counted from.
// All occurrences are date-only values at midnight UTC.
type Recurrence struct {
	Rule    Rule
	DTStart time.Time
}

// New returns a Recurrence anchored on the calendar day of dtstart.
func New(rule Rule, dtstart time.Time) Recurrence {
	return Recurrence{Rule: rule, DTStart: Day(dtstart)}
}

// Day truncates t to midnight UTC of the calendar date t has in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Before returns the latest occurrence strictly before t, or at t when
// inclusive is set. ok is false when no such occurrence exists.
func (rc Recurrence) Before(t time.Time, inclusive bool) (occ time.Time, ok bool, err error) {
	it := rc.iter()
	it.seek(t)
	for {
		next, more := it.next()
		if !more {
			if it.err != nil {
				return time.Time{}, false, it.err
			}
			return occ, ok, nil
		}
		if next.After(t) || (!inclusive && next.Equal(t)) {
			return occ, ok, nil
		}
		occ, ok = next, true
	}
}

// After returns the earliest occurrence strictly after t, or at t when
// inclusive is set. ok is false once the rule is exhausted.
func (rc Recurrence) After(t time.Time, inclusive bool) (time.Time, bool, error) {
	it := rc.iter()
	it.seek(t)
	for {
		next, more := it.next()
		if !more {
			return time.Time{}, false, it.err
		}
		if next.After(t) || (inclusive && next.Equal(t)) {
			return next, true, nil
		}
	}
}

// Between returns every occurrence in [from, to).
func (rc Recurrence) Between(from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	it := rc.iter()
	it.seek(from)
	for {
		next, more := it.next()
		if !more {
			return out, it.err
		}
		if !next.Before(to) {
			return out, nil
		}
		if !next.Before(from) {
			out = append(out, next)
		}
	}
}

func (rc Recurrence) iter() *iterator {
	it := &iterator{rule: rc.Rule, start: Day(rc.DTStart)}
	r := rc.Rule
	if len(r.ByDay) == 0 {
		return it
	}

	switch r.Freq {
	case Daily:
		// The weekdays hit by a daily stride repeat every 7 periods.
		interval := max(r.Interval, 1)
		for k := range 7 {
			if slices.Contains(r.ByDay, it.start.AddDate(0, 0, k*interval).Weekday()) {
				it.perBlock++
			}
		}
		if it.perBlock == 0 {
			it.done = true
		}
	case Weekly:
		for _, wd := range r.ByDay {
			if mondayOffset(wd) >= mondayOffset(it.start.Weekday()) {
				it.firstWeek++
			}
		}
	}
	return it
}

// iterator yields occurrences in ascending order, honouring COUNT and UNTIL.
type iterator struct {
	rule     Rule
	start    time.Time
	period   int // index of the current FREQ period counted from start
	slot     int // position within ByDay for weekly rules
	emitted  int
	examined int
	done     bool
	err      error

	perBlock  int // daily BYDAY: occurrences per 7 periods
	firstWeek int // weekly BYDAY: occurrences in the anchor's week
}

// seek jumps over whole DAILY or WEEKLY periods lying before target, keeping
// at least one occurrence strictly before target. Skipped occurrences still
// count towards COUNT.
func (it *iterator) seek(target time.Time) {
	if it.done || it.period != 0 {
		return
	}
	r := it.rule
	if r.Until != nil && r.Until.Before(target) {
		target = *r.Until
	}
	days := daysBetween(it.start, Day(target))
	interval := max(r.Interval, 1)

	var skip, credit int
	switch r.Freq {
	case Daily:
		n := days / interval
		if len(r.ByDay) == 0 {
			skip = n - 1
			credit = skip
		} else {
			blocks := n/7 - 1
			skip = blocks * 7
			credit = blocks * it.perBlock
		}
	case Weekly:
		skip = days/(7*interval) - 1
		if len(r.ByDay) == 0 {
			credit = skip
		} else if skip > 0 {
			credit = it.firstWeek + (skip-1)*len(r.ByDay)
		}
	default:
		return
	}

	if skip <= 0 || (r.Count > 0 && credit >= r.Count) {
		return
	}
	it.period = skip
	it.emitted = credit
}

func (it *iterator) next() (time.Time, bool) {
	for !it.done {
		if it.examined >= maxCandidates {
			it.done = true
			it.err = fmt.Errorf("%w: after %d candidates", ErrSearchLimit, maxCandidates)
			break
		}
		it.examined++

		cand, ok := it.advance()
		if !ok || cand.Before(it.start) {
			continue
		}
		if it.rule.Until != nil && cand.After(*it.rule.Until) {
			it.done = true
			break
		}
		if it.rule.Count > 0 && it.emitted >= it.rule.Count {
			it.done = true
			break
		}
		it.emitted++
		return cand, true
	}
	return time.Time{}, false
}

// advance produces the next raw candidate. ok is false when the candidate
// does not exist (Feb 30) or is filtered out by BYDAY.
func (it *iterator) advance() (time.Time, bool) {
	r := it.rule
	interval := max(r.Interval, 1)

	switch r.Freq {
	case Daily:
		cand := it.start.AddDate(0, 0, it.period*interval)
		it.period++
		if len(r.ByDay) > 0 && !slices.Contains(r.ByDay, cand.Weekday()) {
			return cand, false
		}
		return cand, true

	case Weekly:
		if len(r.ByDay) == 0 {
			cand := it.start.AddDate(0, 0, 7*it.period*interval)
			it.period++
			return cand, true
		}
		monday := weekStart(it.start).AddDate(0, 0, 7*it.period*interval)
		cand := monday.AddDate(0, 0, mondayOffset(r.ByDay[it.slot]))
		it.slot++
		if it.slot >= len(r.ByDay) {
			it.slot = 0
			it.period++
		}
		return cand, true

	case Monthly:
		day := r.ByMonthDay
		if day == 0 {
			day = it.start.Day()
		}
		first := time.Date(it.start.Year(), it.start.Month()+time.Month(it.period*interval), 1, 0, 0, 0, 0, time.UTC)
		it.period++
		// Months without the requested day are skipped, not clamped.
		if day > daysInMonth(first.Year(), first.Month()) {
			return first, false
		}
		return first.AddDate(0, 0, day-1), true

	case Yearly:
		year := it.start.Year() + it.period*interval
		it.period++
		if day := it.start.Day(); day > daysInMonth(year, it.start.Month()) {
			return time.Time{}, false
		}
		return time.Date(year, it.start.Month(), it.start.Day(), 0, 0, 0, 0, time.UTC), true
	}

	it.done = true
	return time.Time{}, false
}

func weekStart(t time.Time) time.Time {
	monday := t.AddDate(0, 0, -mondayOffset(t.Weekday()))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole days from a to b. Both are date-only values.
func daysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / 86400)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
