package store

import (
	"context"
	"testing"
)

func TestFamilyMemberCRUD(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	h, err := s.households.Create(ctx, "Smith")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	alice, err := s.members.Create(ctx, h.ID, "Alice", "#ff0000", "🦊")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bob, err := s.members.Create(ctx, h.ID, "Bob", "#00ff00", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if alice.SortOrder != 0 || bob.SortOrder != 1 {
		t.Errorf("sort orders = %d, %d; want 0, 1", alice.SortOrder, bob.SortOrder)
	}
	if alice.HouseholdID != h.ID {
		t.Errorf("household_id = %d, want %d", alice.HouseholdID, h.ID)
	}

	updated, err := s.members.Update(ctx, alice.ID, "Alicia", "#0000ff", "🐻")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Alicia" || updated.AvatarEmoji != "🐻" {
		t.Errorf("updated = %+v", updated)
	}

	if err := s.members.Delete(ctx, bob.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	members, err := s.members.ListByHousehold(ctx, h.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 1 || members[0].ID != alice.ID {
		t.Errorf("members = %+v, want only Alicia", members)
	}
}

func TestFamilyMemberNameUniquePerHousehold(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	h1, _ := s.households.Create(ctx, "One")
	h2, _ := s.households.Create(ctx, "Two")

	if _, err := s.members.Create(ctx, h1.ID, "Alice", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.members.Create(ctx, h1.ID, "Alice", "", ""); err == nil {
		t.Error("expected error for duplicate name in the same household")
	}
	if _, err := s.members.Create(ctx, h2.ID, "Alice", "", ""); err != nil {
		t.Errorf("same name in another household: %v", err)
	}

	exists, err := s.members.NameExists(ctx, h1.ID, "Alice", 0)
	if err != nil {
		t.Fatalf("name exists: %v", err)
	}
	if !exists {
		t.Error("expected Alice to exist")
	}
}

func TestFamilyMemberUpdateSortOrder(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	_, members := seedChore(t, s, "Alice", "Bob", "Carol")

	ids := []int64{members[2].ID, members[0].ID, members[1].ID}
	if err := s.members.UpdateSortOrder(ctx, members[0].HouseholdID, ids); err != nil {
		t.Fatalf("update sort order: %v", err)
	}

	list, err := s.members.ListByHousehold(ctx, members[0].HouseholdID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, id := range ids {
		if list[i].ID != id {
			t.Errorf("list[%d] = %d, want %d", i, list[i].ID, id)
		}
	}
}

func TestDeleteMemberRemovesPoolEntry(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	c, members := seedChore(t, s, "Alice", "Bob")

	if err := s.members.Delete(ctx, members[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	pool, err := s.chores.ListAssignees(ctx, c.ID)
	if err != nil {
		t.Fatalf("list assignees: %v", err)
	}
	if len(pool) != 1 || pool[0].MemberID != members[1].ID {
		t.Errorf("pool = %+v, want only Bob", pool)
	}
}
