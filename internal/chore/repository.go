package chore

import (
	"context"
	"time"

	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/store"
)

// Repository is the storage the generator reads chores from and writes
// instances to.
type Repository interface {
	// GetByID returns the chore with its pool in rotation order, or nil.
	GetByID(ctx context.Context, id int64) (*model.Chore, error)
	ListIDsByHousehold(ctx context.Context, householdID int64) ([]int64, error)
	// RecentAssignees returns up to limit past assignees, newest period first.
	RecentAssignees(ctx context.Context, choreID int64, limit int) ([]int64, error)
	InstanceExists(ctx context.Context, choreID int64, periodStart time.Time) (bool, error)
	// CreateInstance returns store.ErrDuplicateInstance when the period
	// already has an instance.
	CreateInstance(ctx context.Context, choreID, memberID int64, periodStart, periodEnd time.Time) (*model.ChoreInstance, error)
}

// Transactor runs fn against a Repository bound to a single transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

var _ Repository = (*store.ChoreStore)(nil)

type sqlTransactor struct {
	uow database.UnitOfWork
}

// NewSQLTransactor binds a ChoreStore to each transaction opened by uow.
func NewSQLTransactor(uow database.UnitOfWork) Transactor {
	return &sqlTransactor{uow: uow}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return t.uow.WithinTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		return fn(ctx, store.NewChoreStore(tx))
	})
}
