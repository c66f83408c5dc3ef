package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorewheel/internal/model"
)

const instanceCols = `id, chore_id, assigned_member_id, period_start, period_end, created_at`

func scanInstance(s scanner) (*model.ChoreInstance, error) {
	var inst model.ChoreInstance
	var start, end string
	if err := s.Scan(&inst.ID, &inst.ChoreID, &inst.AssignedMemberID, &start, &end, &inst.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if inst.PeriodStart, err = parseDate(start); err != nil {
		return nil, err
	}
	if inst.PeriodEnd, err = parseDate(end); err != nil {
		return nil, err
	}
	return &inst, nil
}

func collectInstances(rows *sql.Rows) ([]model.ChoreInstance, error) {
	defer rows.Close()

	instances := []model.ChoreInstance{}
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		instances = append(instances, *inst)
	}
	return instances, rows.Err()
}

// CreateInstance inserts the instance for one period. It returns
// ErrDuplicateInstance when the chore already has an instance starting on
// periodStart.
func (s *ChoreStore) CreateInstance(ctx context.Context, choreID, memberID int64, periodStart, periodEnd time.Time) (*model.ChoreInstance, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chore_instances (chore_id, assigned_member_id, period_start, period_end) VALUES (?, ?, ?, ?)`,
		choreID, memberID, formatDate(periodStart), formatDate(periodEnd),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("chore %d period %s: %w", choreID, formatDate(periodStart), ErrDuplicateInstance)
		}
		return nil, fmt.Errorf("insert instance: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetInstanceByID(ctx, id)
}

func (s *ChoreStore) GetInstanceByID(ctx context.Context, id int64) (*model.ChoreInstance, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+instanceCols+` FROM chore_instances WHERE id = ?`, id)
	inst, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return inst, nil
}

func (s *ChoreStore) InstanceExists(ctx context.Context, choreID int64, periodStart time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM chore_instances WHERE chore_id = ? AND period_start = ?)`,
		choreID, formatDate(periodStart),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check instance exists: %w", err)
	}
	return exists, nil
}

// RecentAssignees returns who was assigned the chore's latest instances,
// newest period first, at most limit entries.
func (s *ChoreStore) RecentAssignees(ctx context.Context, choreID int64, limit int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT assigned_member_id FROM chore_instances WHERE chore_id = ? ORDER BY period_start DESC LIMIT ?`,
		choreID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent assignees: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListInstancesByChore returns the chore's instances oldest period first.
func (s *ChoreStore) ListInstancesByChore(ctx context.Context, choreID int64) ([]model.ChoreInstance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+instanceCols+` FROM chore_instances WHERE chore_id = ? ORDER BY period_start ASC`, choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list instances by chore: %w", err)
	}
	return collectInstances(rows)
}

// ListInstancesEndingBetween returns the household's instances whose period
// ends on a day in [from, to], ordered by period end.
func (s *ChoreStore) ListInstancesEndingBetween(ctx context.Context, householdID int64, from, to time.Time) ([]model.ChoreInstance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ci.id, ci.chore_id, ci.assigned_member_id, ci.period_start, ci.period_end, ci.created_at
		 FROM chore_instances ci
		 JOIN chores c ON c.id = ci.chore_id
		 WHERE c.household_id = ? AND ci.period_end >= ? AND ci.period_end <= ?
		 ORDER BY ci.period_end ASC, c.sort_order ASC, ci.id ASC`,
		householdID, formatDate(from), formatDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list instances ending between: %w", err)
	}
	return collectInstances(rows)
}

// ListInstancesByMember returns the instances assigned to a member, newest
// period first.
func (s *ChoreStore) ListInstancesByMember(ctx context.Context, memberID int64) ([]model.ChoreInstance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+instanceCols+` FROM chore_instances WHERE assigned_member_id = ? ORDER BY period_start DESC, id DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list instances by member: %w", err)
	}
	return collectInstances(rows)
}
