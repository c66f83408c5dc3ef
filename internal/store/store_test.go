package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/model"
)

type testStores struct {
	households *HouseholdStore
	members    *FamilyMemberStore
	chores     *ChoreStore
}

func setupTestDB(t *testing.T) testStores {
	t.Helper()
	db, err := database.Open(database.MemoryPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return testStores{
		households: NewHouseholdStore(db),
		members:    NewFamilyMemberStore(db),
		chores:     NewChoreStore(db),
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedChore creates a household with the named members and one weekly chore
// whose pool holds all of them.
func seedChore(t *testing.T, s testStores, names ...string) (*model.Chore, []model.FamilyMember) {
	t.Helper()
	ctx := context.Background()

	h, err := s.households.Create(ctx, "Smith")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	var members []model.FamilyMember
	var ids []int64
	for _, name := range names {
		m, err := s.members.Create(ctx, h.ID, name, "#000000", "")
		if err != nil {
			t.Fatalf("create member %s: %v", name, err)
		}
		members = append(members, *m)
		ids = append(ids, m.ID)
	}

	c, err := s.chores.Create(ctx, h.ID, ChoreParams{
		Title:           "Dishes",
		RecurrenceRule:  "FREQ=WEEKLY",
		DTStart:         date(2026, 2, 2),
		RotationPattern: model.RotationRoundRobin,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if err := s.chores.SetAssignees(ctx, c.ID, ids); err != nil {
		t.Fatalf("set assignees: %v", err)
	}
	c, err = s.chores.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("reload chore: %v", err)
	}
	return c, members
}
