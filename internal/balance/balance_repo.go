package balance

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	// Reserve atomically moves days into pending iff enough allocation is
	// available. Returns false when the guard failed or no bucket exists;
	// the check and the increment are one UPDATE, so concurrent reserves
	// against the same bucket serialize on the row.
	Reserve(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error)

	// Consume converts a reservation into used days (approval).
	Consume(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error)

	// Release returns a reservation to available (rejection/cancellation).
	Release(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error)

	// UpsertAllocation provisions or raises a bucket's allocation. Returns
	// false when the new allocation would fall below used + pending.
	UpsertAllocation(ctx context.Context, employeeID, leaveTypeID string, year, totalAllocated int) (bool, error)

	FindByEmployeeYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error)
	FindOne(ctx context.Context, employeeID, leaveTypeID string, year int) (*LeaveBalance, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Reserve(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	query := `
UPDATE leave_balances
SET pending = pending + $4, updated_at = NOW()
WHERE employee_id = $1
  AND leave_type_id = $2
  AND year = $3
  AND total_allocated - used - pending >= $4
`
	return r.guardedExec(ctx, query, employeeID, leaveTypeID, year, days)
}

func (r *repository) Consume(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	query := `
UPDATE leave_balances
SET pending = pending - $4, used = used + $4, updated_at = NOW()
WHERE employee_id = $1
  AND leave_type_id = $2
  AND year = $3
  AND pending >= $4
`
	return r.guardedExec(ctx, query, employeeID, leaveTypeID, year, days)
}

func (r *repository) Release(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	query := `
UPDATE leave_balances
SET pending = pending - $4, updated_at = NOW()
WHERE employee_id = $1
  AND leave_type_id = $2
  AND year = $3
  AND pending >= $4
`
	return r.guardedExec(ctx, query, employeeID, leaveTypeID, year, days)
}

func (r *repository) UpsertAllocation(ctx context.Context, employeeID, leaveTypeID string, year, totalAllocated int) (bool, error) {
	query := `
INSERT INTO leave_balances (id, employee_id, leave_type_id, year, total_allocated, used, pending)
VALUES ($1, $2, $3, $4, $5, 0, 0)
ON CONFLICT (employee_id, leave_type_id, year) DO UPDATE
SET total_allocated = EXCLUDED.total_allocated, updated_at = NOW()
WHERE leave_balances.used + leave_balances.pending <= EXCLUDED.total_allocated
`
	res, err := r.execer().ExecContext(ctx, query, uuid.NewString(), employeeID, leaveTypeID, year, totalAllocated)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *repository) FindByEmployeeYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		Order("leave_type_id ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) FindOne(ctx context.Context, employeeID, leaveTypeID string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("year = ?", year).
		First(&b).Error
	return &b, err
}

func (r *repository) guardedExec(ctx context.Context, query, employeeID, leaveTypeID string, year, days int) (bool, error) {
	res, err := r.execer().ExecContext(ctx, query, employeeID, leaveTypeID, year, days)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		// Surfaced on the next ExecContext call through a closed handle.
		return closedExecer{err: err}
	}
	return sqlDB
}

type closedExecer struct{ err error }

func (c closedExecer) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, c.err
}
