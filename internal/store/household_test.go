package store

import (
	"context"
	"testing"
)

func TestHouseholdCreate(t *testing.T) {
	s := setupTestDB(t)

	h, err := s.households.Create(context.Background(), "Test Household")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.Name != "Test Household" {
		t.Errorf("name = %q, want %q", h.Name, "Test Household")
	}
	if h.ID == 0 {
		t.Error("expected non-zero ID")
	}
}

func TestHouseholdGetByIDNotFound(t *testing.T) {
	s := setupTestDB(t)

	h, err := s.households.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if h != nil {
		t.Error("expected nil for nonexistent household")
	}
}

func TestHouseholdUpdate(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	created, err := s.households.Create(ctx, "Old Name")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := s.households.Update(ctx, created.ID, "New Name")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("name = %q, want %q", updated.Name, "New Name")
	}
}

func TestHouseholdDeleteCascades(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	c, members := seedChore(t, s, "Alice")

	if err := s.households.Delete(ctx, c.HouseholdID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	h, err := s.households.GetByID(ctx, c.HouseholdID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if h != nil {
		t.Error("expected nil after delete")
	}

	m, err := s.members.GetByID(ctx, members[0].ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m != nil {
		t.Error("expected member to be deleted with household")
	}

	got, err := s.chores.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got != nil {
		t.Error("expected chore to be deleted with household")
	}
}

func TestHouseholdListIDs(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	var want []int64
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		h, err := s.households.Create(ctx, name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		want = append(want, h.ID)
	}

	ids, err := s.households.ListIDs(ctx)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != len(want) {
		t.Fatalf("len = %d, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}

	list, err := s.households.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list[0].Name != "Alpha" {
		t.Errorf("first household = %q, want Alpha", list[0].Name)
	}
}
