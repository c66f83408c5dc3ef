// Package chore materialises recurring chores into assigned instances.
package chore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/chorewheel/internal/metrics"
	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/period"
	"github.com/dukerupert/chorewheel/internal/recurrence"
	"github.com/dukerupert/chorewheel/internal/rotation"
	"github.com/dukerupert/chorewheel/internal/store"
)

// ErrChoreNotFound is logged when generation is requested for a chore that
// does not exist. It is never returned.
var ErrChoreNotFound = errors.New("chore not found")

// DefaultHistoryWindow is how many past assignees rotation sees.
const DefaultHistoryWindow = 10

// CreatedFunc is called after a transaction that created instances commits.
type CreatedFunc func(ctx context.Context, householdID int64, instances []model.ChoreInstance)

type Generator struct {
	tx        Transactor
	logger    *slog.Logger
	metrics   metrics.Collector
	now       func() time.Time
	loc       *time.Location
	window    int
	onCreated CreatedFunc
}

type Option func(*Generator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLocation sets the time zone that decides which calendar day is today.
func WithLocation(loc *time.Location) Option {
	return func(g *Generator) { g.loc = loc }
}

func WithHistoryWindow(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.window = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

func WithMetrics(m metrics.Collector) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithOnCreated registers a callback for newly created instances.
func WithOnCreated(fn CreatedFunc) Option {
	return func(g *Generator) { g.onCreated = fn }
}

func NewGenerator(tx Transactor, opts ...Option) *Generator {
	g := &Generator{
		tx:      tx,
		logger:  slog.Default(),
		metrics: metrics.NewNop(),
		now:     time.Now,
		loc:     time.UTC,
		window:  DefaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "generator")
	return g
}

// Today returns the current calendar day in the generator's location.
func (g *Generator) Today() time.Time {
	return recurrence.Day(g.now().In(g.loc))
}

// EnsureForChore makes sure the chore has an instance for its current period,
// and for the following one when includeNext is set. It returns the ids of
// the instances it created; an empty result means nothing was missing.
//
// A missing chore or an empty pool is not an error. A malformed rule is
// returned wrapped around recurrence.ErrInvalidRule.
func (g *Generator) EnsureForChore(ctx context.Context, choreID int64, includeNext bool) ([]int64, error) {
	today := g.Today()

	var c *model.Chore
	var created []model.ChoreInstance
	err := g.tx.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		c, created, err = g.ensure(ctx, repo, choreID, today, includeNext)
		return err
	})
	if errors.Is(err, rotation.ErrEmptyPool) {
		g.logger.Info("chore has no assignees, skipping", "chore_id", choreID)
		return []int64{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(created) > 0 {
		g.logger.Info("chore instances generated", "chore_id", choreID, "created", len(created))
		g.notify(ctx, c.HouseholdID, created)
	}
	return instanceIDs(created), nil
}

// EnsureForFamily runs EnsureForChore with includeNext for every chore of the
// household inside one transaction and returns how many instances were
// created. Chores with a bad rule, an empty pool or an unknown rotation
// pattern are logged and skipped. Storage errors abort the whole sweep.
func (g *Generator) EnsureForFamily(ctx context.Context, householdID int64) (int, error) {
	today := g.Today()
	logger := g.logger.With("household_id", householdID)

	var created []model.ChoreInstance
	err := g.tx.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		ids, err := repo.ListIDsByHousehold(ctx, householdID)
		if err != nil {
			return err
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}

			_, instances, err := g.ensure(ctx, repo, id, today, true)
			if reason, ok := skippable(err); ok {
				logger.Warn("skipping chore", "chore_id", id, "reason", reason, "error", err)
				g.metrics.ChoreFailed(reason)
				continue
			}
			if err != nil {
				g.metrics.ChoreFailed(metrics.ReasonStorage)
				return fmt.Errorf("chore %d: %w", id, err)
			}
			created = append(created, instances...)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ensure instances for household %d: %w", householdID, err)
	}

	if len(created) > 0 {
		logger.Info("household instances generated", "created", len(created))
		g.notify(ctx, householdID, created)
	}
	return len(created), nil
}

// ensure runs the per-chore routine inside an open transaction.
func (g *Generator) ensure(ctx context.Context, repo Repository, choreID int64, today time.Time, includeNext bool) (*model.Chore, []model.ChoreInstance, error) {
	c, err := repo.GetByID(ctx, choreID)
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		g.logger.Warn("generation requested for missing chore", "chore_id", choreID, "error", ErrChoreNotFound)
		return nil, nil, nil
	}
	if len(c.Assignees) == 0 {
		return c, nil, rotation.ErrEmptyPool
	}

	rule, err := recurrence.Parse(c.RecurrenceRule)
	if err == nil {
		err = rule.Validate(c.DTStart)
	}
	if err != nil {
		return c, nil, fmt.Errorf("chore %d: %w", c.ID, err)
	}
	rc := recurrence.New(rule, c.DTStart)

	cur, err := period.CurrentOf(rc, today)
	if err != nil {
		return c, nil, fmt.Errorf("chore %d: %w", c.ID, err)
	}
	if cur == nil {
		return c, nil, nil
	}

	var created []model.ChoreInstance
	inst, err := g.materialize(ctx, repo, c, *cur)
	if err != nil {
		return c, nil, err
	}
	if inst != nil {
		created = append(created, *inst)
	}

	if includeNext {
		next, err := period.NextOf(rc, *cur)
		if err != nil {
			return c, created, fmt.Errorf("chore %d: %w", c.ID, err)
		}
		if next != nil {
			// History is reloaded here so the current period's assignee counts.
			inst, err := g.materialize(ctx, repo, c, *next)
			if err != nil {
				return c, created, err
			}
			if inst != nil {
				created = append(created, *inst)
			}
		}
	}
	return c, created, nil
}

// materialize creates the instance for p unless one exists. A nil instance
// with a nil error means the period was already covered.
func (g *Generator) materialize(ctx context.Context, repo Repository, c *model.Chore, p period.Period) (*model.ChoreInstance, error) {
	exists, err := repo.InstanceExists(ctx, c.ID, p.Start)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	recent, err := repo.RecentAssignees(ctx, c.ID, g.window)
	if err != nil {
		return nil, err
	}

	memberID, err := rotation.Select(c.RotationPattern, c.MemberIDs(), recent, p.Start)
	if err != nil {
		return nil, fmt.Errorf("chore %d: %w", c.ID, err)
	}

	inst, err := repo.CreateInstance(ctx, c.ID, memberID, p.Start, p.End)
	if errors.Is(err, store.ErrDuplicateInstance) {
		g.logger.Debug("instance created concurrently", "chore_id", c.ID, "period", p.String())
		g.metrics.DuplicateAbsorbed()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	g.metrics.InstanceCreated(string(c.RotationPattern))
	return inst, nil
}

func (g *Generator) notify(ctx context.Context, householdID int64, created []model.ChoreInstance) {
	if g.onCreated != nil {
		g.onCreated(ctx, householdID, created)
	}
}

// skippable reports whether err is a per-chore configuration problem and
// returns its metrics reason.
func skippable(err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, recurrence.ErrInvalidRule), errors.Is(err, recurrence.ErrSearchLimit):
		return metrics.ReasonInvalidRule, true
	case errors.Is(err, rotation.ErrEmptyPool):
		return metrics.ReasonEmptyPool, true
	case errors.Is(err, rotation.ErrUnknownPattern):
		return metrics.ReasonUnknownPattern, true
	}
	return "", false
}

func instanceIDs(instances []model.ChoreInstance) []int64 {
	ids := make([]int64, 0, len(instances))
	for _, inst := range instances {
		ids = append(ids, inst.ID)
	}
	return ids
}
