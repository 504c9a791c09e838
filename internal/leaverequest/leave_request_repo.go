package leaverequest

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows the admin listing. Nil/zero fields are skipped.
type ListFilter struct {
	Status      string
	EmployeeID  string
	LeaveTypeID string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}

//go:generate mockgen -source=leave_request_repo.go -destination=mock/leave_request_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, lr *LeaveRequest) error

	// FindByIDForUpdate locks the row for the remainder of the transaction
	// so concurrent decisions on the same request serialize. Must be called
	// with a transaction attached.
	FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error)

	// ApplyDecision persists a status transition guarded by status=PENDING.
	// Returns false when the guard matched no row (already decided).
	ApplyDecision(ctx context.Context, lr *LeaveRequest) (bool, error)

	FindDetailByID(ctx context.Context, id string) (*LeaveRequestDetail, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequestDetail, error)
	List(ctx context.Context, f ListFilter) ([]LeaveRequestDetail, int64, error)
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

func (r *repository) Create(ctx context.Context, lr *LeaveRequest) error {
	query := `
INSERT INTO leave_requests (
	id, employee_id, leave_type_id, start_date, end_date,
	total_days, reason, document_url, status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	conn, err := r.conn()
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, query,
		lr.ID, lr.EmployeeID, lr.LeaveTypeID, lr.StartDate, lr.EndDate,
		lr.TotalDays, lr.Reason, lr.DocumentURL, lr.Status,
	)
	return err
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error) {
	query := `
SELECT
	id, employee_id, leave_type_id, start_date, end_date,
	total_days, reason, document_url, status,
	approver_id, approver_comment, approved_at, created_at, updated_at
FROM leave_requests
WHERE id = $1
FOR UPDATE
`
	conn, err := r.conn()
	if err != nil {
		return nil, err
	}

	var (
		lr              LeaveRequest
		documentURL     sql.NullString
		approverID      sql.NullString
		approverComment sql.NullString
		approvedAt      sql.NullTime
	)
	err = conn.QueryRowContext(ctx, query, id).Scan(
		&lr.ID, &lr.EmployeeID, &lr.LeaveTypeID, &lr.StartDate, &lr.EndDate,
		&lr.TotalDays, &lr.Reason, &documentURL, &lr.Status,
		&approverID, &approverComment, &approvedAt, &lr.CreatedAt, &lr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if documentURL.Valid {
		lr.DocumentURL = &documentURL.String
	}
	if approverID.Valid {
		parsed, err := uuid.Parse(approverID.String)
		if err != nil {
			return nil, err
		}
		lr.ApproverID = &parsed
	}
	if approverComment.Valid {
		lr.ApproverComment = &approverComment.String
	}
	if approvedAt.Valid {
		lr.ApprovedAt = &approvedAt.Time
	}

	return &lr, nil
}

func (r *repository) ApplyDecision(ctx context.Context, lr *LeaveRequest) (bool, error) {
	query := `
UPDATE leave_requests
SET
	status = $2,
	approver_id = $3,
	approver_comment = $4,
	approved_at = $5,
	updated_at = NOW()
WHERE id = $1 AND status = 'PENDING'
`
	conn, err := r.conn()
	if err != nil {
		return false, err
	}
	res, err := conn.ExecContext(ctx, query,
		lr.ID, lr.Status, lr.ApproverID, lr.ApproverComment, lr.ApprovedAt,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

const detailSelect = `
lr.id,
lr.employee_id,
COALESCE(e.full_name, '') AS employee_name,
lr.leave_type_id,
COALESCE(lt.name, '') AS leave_type_name,
lr.start_date,
lr.end_date,
lr.total_days,
lr.reason,
lr.document_url,
lr.status,
lr.approver_id,
a.full_name AS approver_name,
lr.approver_comment,
lr.approved_at,
lr.created_at
`

func (r *repository) detailQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("leave_requests AS lr").
		Select(detailSelect).
		Joins("LEFT JOIN employees e ON e.id = lr.employee_id").
		Joins("LEFT JOIN leave_types lt ON lt.id = lr.leave_type_id").
		Joins("LEFT JOIN employees a ON a.id = lr.approver_id")
}

func (r *repository) FindDetailByID(ctx context.Context, id string) (*LeaveRequestDetail, error) {
	var rows []LeaveRequestDetail
	err := r.detailQuery(ctx).
		Where("lr.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequestDetail, error) {
	var rows []LeaveRequestDetail
	err := r.detailQuery(ctx).
		Where("lr.employee_id = ?", employeeID).
		Order("lr.start_date DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]LeaveRequestDetail, int64, error) {
	var total int64
	counted := applyListFilter(r.db.WithContext(ctx).Model(&LeaveRequest{}), f, "")
	if err := counted.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	var rows []LeaveRequestDetail
	err := applyListFilter(r.detailQuery(ctx), f, "lr.").
		Order("lr.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func applyListFilter(db *gorm.DB, f ListFilter, prefix string) *gorm.DB {
	if f.Status != "" {
		db = db.Where(prefix+"status = ?", f.Status)
	}
	if f.EmployeeID != "" {
		db = db.Where(prefix+"employee_id = ?", f.EmployeeID)
	}
	if f.LeaveTypeID != "" {
		db = db.Where(prefix+"leave_type_id = ?", f.LeaveTypeID)
	}
	if f.From != nil {
		db = db.Where(prefix+"start_date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where(prefix+"start_date <= ?", *f.To)
	}
	return db
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repository) conn() (querier, error) {
	if r.tx != nil {
		return r.tx, nil
	}
	return r.db.DB()
}
