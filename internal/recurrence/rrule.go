package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRule is wrapped by every Parse failure.
var ErrInvalidRule = errors.New("invalid recurrence rule")

type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
	Yearly
)

var freqNames = map[Freq]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
	Yearly:  "YEARLY",
}

var freqFromName = map[string]Freq{
	"DAILY":   Daily,
	"WEEKLY":  Weekly,
	"MONTHLY": Monthly,
	"YEARLY":  Yearly,
}

var dayNames = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

var dayAbbrev = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

type Rule struct {
	Freq       Freq
	Interval   int            // default 1; 2 = biweekly when Freq=Weekly
	ByDay      []time.Weekday // WEEKLY: which days (empty = anchor weekday); DAILY: day filter
	ByMonthDay int            // for MONTHLY: day of month (0 = same as anchor)
	Count      int            // max occurrences (0 = unlimited)
	Until      *time.Time     // last permitted occurrence day (nil = no limit)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRule, fmt.Sprintf(format, args...))
}

// Parse parses an RRULE string like "FREQ=WEEKLY;BYDAY=MO,WE;INTERVAL=2".
// A leading "RRULE:" property name is accepted.
func Parse(rule string) (Rule, error) {
	rule = strings.TrimSpace(rule)
	rule = strings.TrimPrefix(rule, "RRULE:")
	if rule == "" {
		return Rule{}, invalid("empty rule")
	}

	r := Rule{Interval: 1}
	var hasFreq bool

	parts := strings.Split(strings.TrimSuffix(rule, ";"), ";")
	for _, part := range parts {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return Rule{}, invalid("invalid rule part: %q", part)
		}
		key, val := strings.ToUpper(strings.TrimSpace(kv[0])), strings.TrimSpace(kv[1])

		switch key {
		case "FREQ":
			f, ok := freqFromName[strings.ToUpper(val)]
			if !ok {
				return Rule{}, invalid("unknown frequency: %q", val)
			}
			r.Freq = f
			hasFreq = true

		case "INTERVAL":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Rule{}, invalid("invalid interval: %q", val)
			}
			r.Interval = n

		case "BYDAY":
			for _, d := range strings.Split(val, ",") {
				wd, ok := dayNames[strings.ToUpper(strings.TrimSpace(d))]
				if !ok {
					return Rule{}, invalid("unknown day: %q", d)
				}
				if !slices.Contains(r.ByDay, wd) {
					r.ByDay = append(r.ByDay, wd)
				}
			}
			slices.SortFunc(r.ByDay, func(a, b time.Weekday) int {
				return mondayOffset(a) - mondayOffset(b)
			})

		case "BYMONTHDAY":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 || n > 31 {
				return Rule{}, invalid("invalid BYMONTHDAY: %q", val)
			}
			r.ByMonthDay = n

		case "COUNT":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Rule{}, invalid("invalid count: %q", val)
			}
			r.Count = n

		case "UNTIL":
			t, err := time.Parse("20060102T150405Z", val)
			if err != nil {
				t, err = time.Parse("20060102", val)
				if err != nil {
					return Rule{}, invalid("invalid UNTIL: %q", val)
				}
			}
			r.Until = &t

		case "WKST":
			// Weeks always start on Monday here; accept MO for compatibility.
			if strings.ToUpper(val) != "MO" {
				return Rule{}, invalid("unsupported WKST: %q", val)
			}

		default:
			return Rule{}, invalid("unsupported rule key: %q", key)
		}
	}

	if !hasFreq {
		return Rule{}, invalid("FREQ is required")
	}
	if len(r.ByDay) > 0 && r.Freq != Weekly && r.Freq != Daily {
		return Rule{}, invalid("BYDAY requires FREQ=WEEKLY or FREQ=DAILY")
	}
	if r.ByMonthDay > 0 && r.Freq != Monthly {
		return Rule{}, invalid("BYMONTHDAY requires FREQ=MONTHLY")
	}
	if r.Count > 0 && r.Until != nil {
		return Rule{}, invalid("COUNT and UNTIL are mutually exclusive")
	}

	return r, nil
}

// Anchors outside these years are rejected as likely typos.
const (
	MinYear = 1900
	MaxYear = 2200
)

// Validate checks the rule against the anchor it will be expanded from. It
// rejects anchors outside [MinYear, MaxYear] and DAILY BYDAY filters that the
// interval stride can never land on.
func (r Rule) Validate(dtstart time.Time) error {
	if y := dtstart.Year(); y < MinYear || y > MaxYear {
		return invalid("dtstart year %d outside %d-%d", y, MinYear, MaxYear)
	}
	if r.Freq == Daily && len(r.ByDay) > 0 && New(r, dtstart).iter().done {
		return invalid("BYDAY=%s never falls on an every-%d-days stride from %s",
			strings.Join(r.byDayAbbrevs(), ","), r.Interval, dtstart.Weekday())
	}
	return nil
}

func (r Rule) byDayAbbrevs() []string {
	days := make([]string, 0, len(r.ByDay))
	for _, d := range r.ByDay {
		days = append(days, dayAbbrev[d])
	}
	return days
}

// String serializes the rule back to a normalized RRULE string.
func (r Rule) String() string {
	var parts []string
	parts = append(parts, "FREQ="+freqNames[r.Freq])

	if r.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval))
	}

	if len(r.ByDay) > 0 {
		parts = append(parts, "BYDAY="+strings.Join(r.byDayAbbrevs(), ","))
	}

	if r.ByMonthDay > 0 {
		parts = append(parts, fmt.Sprintf("BYMONTHDAY=%d", r.ByMonthDay))
	}

	if r.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", r.Count))
	}

	if r.Until != nil {
		layout := "20060102T150405Z"
		if r.Until.Equal(Day(*r.Until)) {
			layout = "20060102"
		}
		parts = append(parts, "UNTIL="+r.Until.Format(layout))
	}

	return strings.Join(parts, ";")
}

// Describe returns a human-readable description of the rule.
func (r Rule) Describe() string {
	var desc string
	switch r.Freq {
	case Daily:
		desc = "Repeats daily"
		if r.Interval > 1 {
			desc = fmt.Sprintf("Repeats every %d days", r.Interval)
		}
		if len(r.ByDay) > 0 {
			desc += " on " + joinDays(r.ByDay)
		}
	case Weekly:
		desc = "Repeats weekly"
		if r.Interval == 2 {
			desc = "Repeats every 2 weeks"
		} else if r.Interval > 2 {
			desc = fmt.Sprintf("Repeats every %d weeks", r.Interval)
		}
		if len(r.ByDay) > 0 {
			desc += " on " + joinDays(r.ByDay)
		}
	case Monthly:
		desc = "Repeats monthly"
		if r.Interval > 1 {
			desc = fmt.Sprintf("Repeats every %d months", r.Interval)
		}
		if r.ByMonthDay > 0 {
			desc += fmt.Sprintf(" on day %d", r.ByMonthDay)
		}
	case Yearly:
		desc = "Repeats yearly"
		if r.Interval > 1 {
			desc = fmt.Sprintf("Repeats every %d years", r.Interval)
		}
	}

	switch {
	case r.Count == 1:
		desc += ", once"
	case r.Count > 1:
		desc += fmt.Sprintf(", %d times", r.Count)
	case r.Until != nil:
		desc += ", until " + r.Until.Format("Jan 2, 2006")
	}
	return desc
}

func joinDays(days []time.Weekday) string {
	var names []string
	for _, d := range days {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ", ")
}

// mondayOffset returns the number of days between Monday and wd.
func mondayOffset(wd time.Weekday) int {
	offset := int(wd) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return offset
}
