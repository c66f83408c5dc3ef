package store

import (
	"context"
	"testing"

	"github.com/dukerupert/chorewheel/internal/model"
)

func TestChoreCRUD(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	h, err := s.households.Create(ctx, "Smith")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	// Create
	c, err := s.chores.Create(ctx, h.ID, ChoreParams{
		Title:           "Vacuum",
		Description:     "Living room",
		Points:          5,
		RecurrenceRule:  "FREQ=WEEKLY;BYDAY=SA",
		DTStart:         date(2026, 2, 7),
		RotationPattern: model.RotationWeighted,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if c.Title != "Vacuum" {
		t.Errorf("title = %q, want %q", c.Title, "Vacuum")
	}
	if !c.DTStart.Equal(date(2026, 2, 7)) {
		t.Errorf("dtstart = %v, want 2026-02-07", c.DTStart)
	}
	if c.RotationPattern != model.RotationWeighted {
		t.Errorf("rotation_pattern = %q, want weighted", c.RotationPattern)
	}
	if len(c.Assignees) != 0 {
		t.Errorf("assignees = %v, want empty", c.Assignees)
	}

	// Update
	updated, err := s.chores.Update(ctx, c.ID, ChoreParams{
		Title:           "Vacuum upstairs",
		Points:          8,
		RecurrenceRule:  "FREQ=DAILY",
		DTStart:         date(2026, 3, 1),
		RotationPattern: model.RotationRandom,
	})
	if err != nil {
		t.Fatalf("update chore: %v", err)
	}
	if updated.Title != "Vacuum upstairs" || updated.Points != 8 || updated.RecurrenceRule != "FREQ=DAILY" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.HouseholdID != h.ID {
		t.Errorf("household_id = %d, want %d", updated.HouseholdID, h.ID)
	}

	// Delete
	if err := s.chores.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete chore: %v", err)
	}
	got, err := s.chores.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestChoreGetByIDNotFound(t *testing.T) {
	s := setupTestDB(t)

	c, err := s.chores.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if c != nil {
		t.Error("expected nil for nonexistent chore")
	}
}

func TestChoreRejectsUnknownRotationPattern(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	h, _ := s.households.Create(ctx, "Smith")

	_, err := s.chores.Create(ctx, h.ID, ChoreParams{
		Title:           "Trash",
		RecurrenceRule:  "FREQ=WEEKLY",
		DTStart:         date(2026, 2, 2),
		RotationPattern: "lottery",
	})
	if err == nil {
		t.Error("expected check constraint error")
	}
}

func TestSetAssigneesReplacesPool(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	c, members := seedChore(t, s, "Alice", "Bob", "Carol")

	if got := c.MemberIDs(); len(got) != 3 || got[0] != members[0].ID || got[2] != members[2].ID {
		t.Fatalf("initial pool = %v", got)
	}

	reordered := []int64{members[2].ID, members[0].ID}
	if err := s.chores.SetAssignees(ctx, c.ID, reordered); err != nil {
		t.Fatalf("set assignees: %v", err)
	}

	pool, err := s.chores.ListAssignees(ctx, c.ID)
	if err != nil {
		t.Fatalf("list assignees: %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("len(pool) = %d, want 2", len(pool))
	}
	for i, id := range reordered {
		if pool[i].MemberID != id || pool[i].SortOrder != i {
			t.Errorf("pool[%d] = %+v, want member %d at %d", i, pool[i], id, i)
		}
	}
}

func TestListByHouseholdLoadsPools(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	c, members := seedChore(t, s, "Alice", "Bob")

	second, err := s.chores.Create(ctx, c.HouseholdID, ChoreParams{
		Title:           "Laundry",
		RecurrenceRule:  "FREQ=DAILY",
		DTStart:         date(2026, 2, 2),
		RotationPattern: model.RotationRoundRobin,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	chores, err := s.chores.ListByHousehold(ctx, c.HouseholdID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chores) != 2 {
		t.Fatalf("len = %d, want 2", len(chores))
	}
	if chores[0].ID != c.ID || chores[1].ID != second.ID {
		t.Errorf("order = %d, %d; want %d, %d", chores[0].ID, chores[1].ID, c.ID, second.ID)
	}
	if len(chores[0].Assignees) != len(members) {
		t.Errorf("pool size = %d, want %d", len(chores[0].Assignees), len(members))
	}
	if len(chores[1].Assignees) != 0 {
		t.Errorf("second pool size = %d, want 0", len(chores[1].Assignees))
	}

	ids, err := s.chores.ListIDsByHousehold(ctx, c.HouseholdID)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != c.ID {
		t.Errorf("ids = %v", ids)
	}
}
