package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/model"
)

type FamilyMemberStore struct {
	db database.DBTX
}

func NewFamilyMemberStore(db database.DBTX) *FamilyMemberStore {
	return &FamilyMemberStore{db: db}
}

const memberCols = `id, household_id, name, color, avatar_emoji, sort_order, created_at, updated_at`

func scanMember(s scanner) (*model.FamilyMember, error) {
	var m model.FamilyMember
	err := s.Scan(&m.ID, &m.HouseholdID, &m.Name, &m.Color, &m.AvatarEmoji, &m.SortOrder, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *FamilyMemberStore) Create(ctx context.Context, householdID int64, name, color, avatarEmoji string) (*model.FamilyMember, error) {
	var maxOrder int
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(sort_order), -1) FROM family_members WHERE household_id = ?", householdID,
	).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO family_members (household_id, name, color, avatar_emoji, sort_order) VALUES (?, ?, ?, ?, ?)",
		householdID, name, color, avatarEmoji, maxOrder+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family member: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *FamilyMemberStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.FamilyMember, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memberCols+" FROM family_members WHERE household_id = ? ORDER BY sort_order, id",
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("query family members: %w", err)
	}
	defer rows.Close()

	var members []model.FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *FamilyMemberStore) GetByID(ctx context.Context, id int64) (*model.FamilyMember, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberCols+" FROM family_members WHERE id = ?", id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query family member: %w", err)
	}
	return m, nil
}

func (s *FamilyMemberStore) Update(ctx context.Context, id int64, name, color, avatarEmoji string) (*model.FamilyMember, error) {
	_, err := s.db.ExecContext(ctx,
		"UPDATE family_members SET name = ?, color = ?, avatar_emoji = ? WHERE id = ?",
		name, color, avatarEmoji, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update family member: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes the member and its pool entries. Instances already assigned
// to the member are kept.
func (s *FamilyMemberStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM family_members WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete family member: %w", err)
	}
	return nil
}

// UpdateSortOrder assigns sort orders by position in ids. Run it inside a
// transaction to apply the order atomically.
func (s *FamilyMemberStore) UpdateSortOrder(ctx context.Context, householdID int64, ids []int64) error {
	for i, id := range ids {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE family_members SET sort_order = ? WHERE id = ? AND household_id = ?", i, id, householdID,
		); err != nil {
			return fmt.Errorf("update sort order for id %d: %w", id, err)
		}
	}
	return nil
}

func (s *FamilyMemberStore) NameExists(ctx context.Context, householdID int64, name string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM family_members WHERE household_id = ? AND name = ? AND id != ?",
		householdID, name, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check name exists: %w", err)
	}
	return count > 0, nil
}
