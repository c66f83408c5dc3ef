package model

import (
	"fmt"
	"strings"
	"time"
)

// RotationPattern decides who is assigned each period of a chore.
type RotationPattern string

const (
	RotationRoundRobin RotationPattern = "round_robin"
	RotationRandom     RotationPattern = "random"
	RotationWeighted   RotationPattern = "weighted"
)

// ParseRotationPattern accepts the stored value as well as the upper-case
// spelling used by older clients ("ROUND_ROBIN").
func ParseRotationPattern(s string) (RotationPattern, error) {
	p := RotationPattern(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case RotationRoundRobin, RotationRandom, RotationWeighted:
		return p, nil
	case "":
		return RotationRoundRobin, nil
	}
	return "", fmt.Errorf("unknown rotation pattern: %q", s)
}

type Chore struct {
	ID              int64           `json:"id"`
	HouseholdID     int64           `json:"household_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Points          int             `json:"points"`
	RecurrenceRule  string          `json:"recurrence_rule"`
	DTStart         time.Time       `json:"dtstart"`
	RotationPattern RotationPattern `json:"rotation_pattern"`
	SortOrder       int             `json:"sort_order"`
	Assignees       []Assignee      `json:"assignees"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Assignee is one entry of a chore's rotation pool.
type Assignee struct {
	ChoreID   int64 `json:"chore_id"`
	MemberID  int64 `json:"member_id"`
	SortOrder int   `json:"sort_order"`
}

// MemberIDs returns the pool's member ids in rotation order.
func (c Chore) MemberIDs() []int64 {
	ids := make([]int64, 0, len(c.Assignees))
	for _, a := range c.Assignees {
		ids = append(ids, a.MemberID)
	}
	return ids
}

type ChoreInstance struct {
	ID               int64     `json:"id"`
	ChoreID          int64     `json:"chore_id"`
	AssignedMemberID int64     `json:"assigned_member_id"`
	PeriodStart      time.Time `json:"period_start"`
	PeriodEnd        time.Time `json:"period_end"`
	CreatedAt        time.Time `json:"created_at"`
}
