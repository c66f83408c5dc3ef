package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/model"
)

type ChoreStore struct {
	db database.DBTX
}

func NewChoreStore(db database.DBTX) *ChoreStore {
	return &ChoreStore{db: db}
}

// ChoreParams holds the editable fields of a chore.
type ChoreParams struct {
	Title           string
	Description     string
	Points          int
	RecurrenceRule  string
	DTStart         time.Time
	RotationPattern model.RotationPattern
}

const choreCols = `id, household_id, title, description, points, recurrence_rule, dtstart, rotation_pattern, sort_order, created_at, updated_at`

func scanChore(s scanner) (*model.Chore, error) {
	var c model.Chore
	var dtstart, pattern string

	err := s.Scan(
		&c.ID, &c.HouseholdID, &c.Title, &c.Description, &c.Points,
		&c.RecurrenceRule, &dtstart, &pattern, &c.SortOrder,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.DTStart, err = parseDate(dtstart); err != nil {
		return nil, err
	}
	c.RotationPattern = model.RotationPattern(pattern)
	return &c, nil
}

func (s *ChoreStore) Create(ctx context.Context, householdID int64, p ChoreParams) (*model.Chore, error) {
	var maxOrder int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), -1) FROM chores WHERE household_id = ?`, householdID,
	).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chores (household_id, title, description, points, recurrence_rule, dtstart, rotation_pattern, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, p.Title, p.Description, p.Points, p.RecurrenceRule, formatDate(p.DTStart), string(p.RotationPattern), maxOrder+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the chore with its assignee pool, or nil when it does not exist.
func (s *ChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}

	if c.Assignees, err = s.ListAssignees(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChoreStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.Chore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? ORDER BY sort_order ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	// Release the connection before loading pools.
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close chore rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chores: %w", err)
	}

	for i := range chores {
		if chores[i].Assignees, err = s.ListAssignees(ctx, chores[i].ID); err != nil {
			return nil, err
		}
	}
	return chores, nil
}

// ListIDsByHousehold returns the household's chore ids in display order.
func (s *ChoreStore) ListIDsByHousehold(ctx context.Context, householdID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM chores WHERE household_id = ? ORDER BY sort_order ASC, id ASC`, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chore ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chore id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *ChoreStore) Update(ctx context.Context, id int64, p ChoreParams) (*model.Chore, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chores SET title = ?, description = ?, points = ?, recurrence_rule = ?, dtstart = ?, rotation_pattern = ?
		 WHERE id = ?`,
		p.Title, p.Description, p.Points, p.RecurrenceRule, formatDate(p.DTStart), string(p.RotationPattern), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

// --- Assignee pool ---

// ListAssignees returns the pool in rotation order.
func (s *ChoreStore) ListAssignees(ctx context.Context, choreID int64) ([]model.Assignee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chore_id, member_id, sort_order FROM chore_assignees WHERE chore_id = ? ORDER BY sort_order ASC, member_id ASC`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	assignees := []model.Assignee{}
	for rows.Next() {
		var a model.Assignee
		if err := rows.Scan(&a.ChoreID, &a.MemberID, &a.SortOrder); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		assignees = append(assignees, a)
	}
	return assignees, rows.Err()
}

// SetAssignees replaces the pool with memberIDs, in that order. Run it inside
// a transaction so readers never see a partial pool.
func (s *ChoreStore) SetAssignees(ctx context.Context, choreID int64, memberIDs []int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chore_assignees WHERE chore_id = ?`, choreID); err != nil {
		return fmt.Errorf("clear assignees: %w", err)
	}
	for i, memberID := range memberIDs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO chore_assignees (chore_id, member_id, sort_order) VALUES (?, ?, ?)`,
			choreID, memberID, i,
		); err != nil {
			return fmt.Errorf("insert assignee %d: %w", memberID, err)
		}
	}
	return nil
}
