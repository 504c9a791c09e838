package leaverequest_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"dayflow/internal/balance"
	"dayflow/internal/leaverequest"
	leaveerrors "dayflow/internal/leaverequest/errors"
	"dayflow/internal/messaging/kafka"
	"dayflow/internal/shared/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type fakeLeaveRequestRepository struct {
	withTxFn            func(tx *sql.Tx) leaverequest.Repository
	createFn            func(ctx context.Context, lr *leaverequest.LeaveRequest) error
	findByIDForUpdateFn func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error)
	applyDecisionFn     func(ctx context.Context, lr *leaverequest.LeaveRequest) (bool, error)
	findDetailByIDFn    func(ctx context.Context, id string) (*leaverequest.LeaveRequestDetail, error)
	listByEmployeeFn    func(ctx context.Context, employeeID string) ([]leaverequest.LeaveRequestDetail, error)
	listFn              func(ctx context.Context, f leaverequest.ListFilter) ([]leaverequest.LeaveRequestDetail, int64, error)
}

func (f *fakeLeaveRequestRepository) WithTx(tx *sql.Tx) leaverequest.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLeaveRequestRepository) Create(ctx context.Context, lr *leaverequest.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, lr)
	}
	return nil
}

func (f *fakeLeaveRequestRepository) FindByIDForUpdate(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
	if f.findByIDForUpdateFn != nil {
		return f.findByIDForUpdateFn(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLeaveRequestRepository) ApplyDecision(ctx context.Context, lr *leaverequest.LeaveRequest) (bool, error) {
	if f.applyDecisionFn != nil {
		return f.applyDecisionFn(ctx, lr)
	}
	return true, nil
}

func (f *fakeLeaveRequestRepository) FindDetailByID(ctx context.Context, id string) (*leaverequest.LeaveRequestDetail, error) {
	if f.findDetailByIDFn != nil {
		return f.findDetailByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeLeaveRequestRepository) ListByEmployee(ctx context.Context, employeeID string) ([]leaverequest.LeaveRequestDetail, error) {
	if f.listByEmployeeFn != nil {
		return f.listByEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeLeaveRequestRepository) List(ctx context.Context, fl leaverequest.ListFilter) ([]leaverequest.LeaveRequestDetail, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, fl)
	}
	return nil, 0, nil
}

type fakeBalanceRepository struct {
	withTxFn             func(tx *sql.Tx) balance.Repository
	reserveFn            func(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error)
	consumeFn            func(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error)
	releaseFn            func(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error)
	upsertAllocationFn   func(ctx context.Context, employeeID, leaveTypeID string, year, totalAllocated int) (bool, error)
	findByEmployeeYearFn func(ctx context.Context, employeeID string, year int) ([]balance.LeaveBalance, error)
	findOneFn            func(ctx context.Context, employeeID, leaveTypeID string, year int) (*balance.LeaveBalance, error)
}

func (f *fakeBalanceRepository) WithTx(tx *sql.Tx) balance.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeBalanceRepository) Reserve(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	if f.reserveFn != nil {
		return f.reserveFn(ctx, employeeID, leaveTypeID, year, days)
	}
	return true, nil
}

func (f *fakeBalanceRepository) Consume(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, employeeID, leaveTypeID, year, days)
	}
	return true, nil
}

func (f *fakeBalanceRepository) Release(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	if f.releaseFn != nil {
		return f.releaseFn(ctx, employeeID, leaveTypeID, year, days)
	}
	return true, nil
}

func (f *fakeBalanceRepository) UpsertAllocation(ctx context.Context, employeeID, leaveTypeID string, year, totalAllocated int) (bool, error) {
	if f.upsertAllocationFn != nil {
		return f.upsertAllocationFn(ctx, employeeID, leaveTypeID, year, totalAllocated)
	}
	return true, nil
}

func (f *fakeBalanceRepository) FindByEmployeeYear(ctx context.Context, employeeID string, year int) ([]balance.LeaveBalance, error) {
	if f.findByEmployeeYearFn != nil {
		return f.findByEmployeeYearFn(ctx, employeeID, year)
	}
	return nil, nil
}

func (f *fakeBalanceRepository) FindOne(ctx context.Context, employeeID, leaveTypeID string, year int) (*balance.LeaveBalance, error) {
	if f.findOneFn != nil {
		return f.findOneFn(ctx, employeeID, leaveTypeID, year)
	}
	return nil, nil
}

type fakeOutboxRepository struct {
	createFn func(ctx context.Context, event kafka.OutboxEvent) error
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	return nil
}

func (f *fakeOutboxRepository) ListDue(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id, reason string) error { return nil }

type leaveRequestServiceDeps struct {
	db       *sql.DB
	sqlMock  sqlmock.Sqlmock
	service  leaverequest.Service
	repo     *fakeLeaveRequestRepository
	balances *fakeBalanceRepository
	outbox   *fakeOutboxRepository
}

func setupLeaveRequestServiceTest(t *testing.T) *leaveRequestServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRequestRepository{}
	balances := &fakeBalanceRepository{}
	outbox := &fakeOutboxRepository{}
	svc := leaverequest.NewServiceWithOutbox(db, repo, balances, outbox)

	return &leaveRequestServiceDeps{
		db:       db,
		sqlMock:  sqlMock,
		service:  svc,
		repo:     repo,
		balances: balances,
		outbox:   outbox,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func TestLeaveRequestService_Submit(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	leaveTypeID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		start := futureDate(10)
		end := futureDate(12)
		req := leaverequest.SubmitLeaveRequest{
			LeaveTypeID: leaveTypeID,
			StartDate:   start,
			EndDate:     end,
			Reason:      "Family trip",
		}

		startYear := time.Now().UTC().AddDate(0, 0, 10).Year()
		deps.balances.reserveFn = func(ctx context.Context, eid, ltid string, year, days int) (bool, error) {
			assert.Equal(t, employeeID, eid)
			assert.Equal(t, leaveTypeID, ltid)
			assert.Equal(t, startYear, year)
			assert.Equal(t, 3, days)
			return true, nil
		}
		deps.repo.createFn = func(ctx context.Context, lr *leaverequest.LeaveRequest) error {
			assert.Equal(t, uuid.MustParse(employeeID), lr.EmployeeID)
			assert.Equal(t, uuid.MustParse(leaveTypeID), lr.LeaveTypeID)
			assert.Equal(t, 3, lr.TotalDays)
			assert.Equal(t, leaverequest.StatusPending, lr.Status)
			return nil
		}

		var enqueued *kafka.OutboxEvent
		deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
			enqueued = &event
			return nil
		}

		resp, err := deps.service.Submit(ctx, employeeID, req)

		assert.NoError(t, err)
		assert.Equal(t, employeeID, resp.EmployeeID)
		assert.Equal(t, start, resp.StartDate)
		assert.Equal(t, end, resp.EndDate)
		assert.Equal(t, 3, resp.TotalDays)
		assert.Equal(t, leaverequest.StatusPending, resp.Status)
		assert.NotNil(t, enqueued)
		assert.Equal(t, "leave_request_submitted", enqueued.EventType)
		assert.Equal(t, resp.ID, enqueued.AggregateID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success single day counts as one", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		day := futureDate(5)
		req := leaverequest.SubmitLeaveRequest{
			LeaveTypeID: leaveTypeID,
			StartDate:   day,
			EndDate:     day,
		}

		deps.balances.reserveFn = func(ctx context.Context, eid, ltid string, year, days int) (bool, error) {
			assert.Equal(t, 1, days)
			return true, nil
		}

		resp, err := deps.service.Submit(ctx, employeeID, req)

		assert.NoError(t, err)
		assert.Equal(t, 1, resp.TotalDays)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success starting today", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		today := futureDate(0)
		req := leaverequest.SubmitLeaveRequest{
			LeaveTypeID: leaveTypeID,
			StartDate:   today,
			EndDate:     today,
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative insufficient balance", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := leaverequest.SubmitLeaveRequest{
			LeaveTypeID: leaveTypeID,
			StartDate:   futureDate(10),
			EndDate:     futureDate(15),
		}

		deps.balances.reserveFn = func(ctx context.Context, eid, ltid string, year, days int) (bool, error) {
			return false, nil
		}
		deps.repo.createFn = func(ctx context.Context, lr *leaverequest.LeaveRequest) error {
			t.Fatal("create must not run after a failed reservation")
			return nil
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
		assertAppCode(t, err, apperror.CodeInsufficientBalance)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative unknown leave type", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := leaverequest.SubmitLeaveRequest{
			LeaveTypeID: leaveTypeID,
			StartDate:   futureDate(10),
			EndDate:     futureDate(11),
		}

		deps.repo.createFn = func(ctx context.Context, lr *leaverequest.LeaveRequest) error {
			return &pgconn.PgError{Code: "23503", ConstraintName: "fk_leave_requests_leave_type"}
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveTypeNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative start date in past", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		req := leaverequest.SubmitLeaveRequest{
			LeaveTypeID: leaveTypeID,
			StartDate:   futureDate(-1),
			EndDate:     futureDate(2),
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.ErrorIs(t, err, leaveerrors.ErrStartDateInPast)
	})

	t.Run("negative start date beyond one year", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		start := time.Now().UTC().AddDate(1, 0, 1).Format("2006-01-02")
		req := leaverequest.SubmitLeaveRequest{
			LeaveTypeID: leaveTypeID,
			StartDate:   start,
			EndDate:     start,
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.ErrorIs(t, err, leaveerrors.ErrStartDateTooFarAhead)
	})

	t.Run("success exactly one year ahead", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		start := time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02")
		req := leaverequest.SubmitLeaveRequest{
			LeaveTypeID: leaveTypeID,
			StartDate:   start,
			EndDate:     start,
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative end before start", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		req := leaverequest.SubmitLeaveRequest{
			LeaveTypeID: leaveTypeID,
			StartDate:   futureDate(5),
			EndDate:     futureDate(3),
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
	})

	t.Run("negative malformed date", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		req := leaverequest.SubmitLeaveRequest{
			LeaveTypeID: leaveTypeID,
			StartDate:   "03/01/2026",
			EndDate:     futureDate(3),
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
	})

	t.Run("negative invalid leave type id", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		req := leaverequest.SubmitLeaveRequest{
			LeaveTypeID: "not-a-uuid",
			StartDate:   futureDate(5),
			EndDate:     futureDate(6),
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveTypeID)
	})
}

func pendingRequest(employeeID, leaveTypeID string) *leaverequest.LeaveRequest {
	return &leaverequest.LeaveRequest{
		ID:          uuid.New(),
		EmployeeID:  uuid.MustParse(employeeID),
		LeaveTypeID: uuid.MustParse(leaveTypeID),
		StartDate:   time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
		TotalDays:   3,
		Status:      leaverequest.StatusPending,
	}
}

func TestLeaveRequestService_Approve(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	leaveTypeID := uuid.New().String()
	approverID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		lr := pendingRequest(employeeID, leaveTypeID)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			assert.Equal(t, lr.ID.String(), id)
			return lr, nil
		}
		deps.repo.applyDecisionFn = func(ctx context.Context, got *leaverequest.LeaveRequest) (bool, error) {
			assert.Equal(t, leaverequest.StatusApproved, got.Status)
			assert.NotNil(t, got.ApproverID)
			assert.Equal(t, approverID, got.ApproverID.String())
			assert.NotNil(t, got.ApprovedAt)
			return true, nil
		}

		consumed := false
		deps.balances.consumeFn = func(ctx context.Context, eid, ltid string, year, days int) (bool, error) {
			consumed = true
			assert.Equal(t, employeeID, eid)
			assert.Equal(t, leaveTypeID, ltid)
			assert.Equal(t, 2026, year)
			assert.Equal(t, 3, days)
			return true, nil
		}

		var enqueued *kafka.OutboxEvent
		deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
			enqueued = &event
			return nil
		}

		resp, err := deps.service.Approve(ctx, approverID, lr.ID.String(), "enjoy")

		assert.NoError(t, err)
		assert.True(t, consumed)
		assert.Equal(t, leaverequest.StatusApproved, resp.Status)
		assert.NotNil(t, resp.ApprovedAt)
		assert.NotNil(t, enqueued)
		assert.Equal(t, "leave_request_approved", enqueued.EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already decided", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		lr := pendingRequest(employeeID, leaveTypeID)
		lr.Status = leaverequest.StatusApproved

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}
		deps.balances.consumeFn = func(ctx context.Context, eid, ltid string, year, days int) (bool, error) {
			t.Fatal("consume must not run for a decided request")
			return false, nil
		}

		_, err := deps.service.Approve(ctx, approverID, lr.ID.String(), "")

		assertAppCode(t, err, apperror.CodeInvalidState)
		assert.Contains(t, err.Error(), "APPROVED")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not found", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return nil, sql.ErrNoRows
		}

		_, err := deps.service.Approve(ctx, approverID, uuid.New().String(), "")

		assert.ErrorIs(t, err, leaveerrors.ErrRequestNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative missing balance bucket", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		lr := pendingRequest(employeeID, leaveTypeID)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}
		deps.balances.consumeFn = func(ctx context.Context, eid, ltid string, year, days int) (bool, error) {
			return false, nil
		}

		_, err := deps.service.Approve(ctx, approverID, lr.ID.String(), "")

		assert.ErrorIs(t, err, leaveerrors.ErrBalanceConsistency)
		assertAppCode(t, err, apperror.CodeConsistencyError)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative repo error rolls back", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		lr := pendingRequest(employeeID, leaveTypeID)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}
		deps.repo.applyDecisionFn = func(ctx context.Context, got *leaverequest.LeaveRequest) (bool, error) {
			return false, errors.New("db error")
		}

		_, err := deps.service.Approve(ctx, approverID, lr.ID.String(), "")

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveRequestService_Reject(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	leaveTypeID := uuid.New().String()
	approverID := uuid.New().String()

	t.Run("success releases reservation", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		lr := pendingRequest(employeeID, leaveTypeID)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}
		deps.repo.applyDecisionFn = func(ctx context.Context, got *leaverequest.LeaveRequest) (bool, error) {
			assert.Equal(t, leaverequest.StatusRejected, got.Status)
			assert.Nil(t, got.ApprovedAt)
			assert.NotNil(t, got.ApproverComment)
			assert.Equal(t, "coverage conflict", *got.ApproverComment)
			return true, nil
		}

		released := false
		deps.balances.releaseFn = func(ctx context.Context, eid, ltid string, year, days int) (bool, error) {
			released = true
			assert.Equal(t, 2026, year)
			assert.Equal(t, 3, days)
			return true, nil
		}
		deps.balances.consumeFn = func(ctx context.Context, eid, ltid string, year, days int) (bool, error) {
			t.Fatal("reject must not consume")
			return false, nil
		}

		resp, err := deps.service.Reject(ctx, approverID, lr.ID.String(), "coverage conflict")

		assert.NoError(t, err)
		assert.True(t, released)
		assert.Equal(t, leaverequest.StatusRejected, resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative missing comment", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Reject(ctx, approverID, uuid.New().String(), "   ")

		assert.ErrorIs(t, err, leaveerrors.ErrApproverCommentRequired)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveRequestService_Cancel(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	leaveTypeID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		lr := pendingRequest(employeeID, leaveTypeID)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}
		deps.repo.applyDecisionFn = func(ctx context.Context, got *leaverequest.LeaveRequest) (bool, error) {
			assert.Equal(t, leaverequest.StatusCancelled, got.Status)
			return true, nil
		}

		released := false
		deps.balances.releaseFn = func(ctx context.Context, eid, ltid string, year, days int) (bool, error) {
			released = true
			return true, nil
		}

		var enqueued *kafka.OutboxEvent
		deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
			enqueued = &event
			return nil
		}

		resp, err := deps.service.Cancel(ctx, employeeID, lr.ID.String())

		assert.NoError(t, err)
		assert.True(t, released)
		assert.Equal(t, leaverequest.StatusCancelled, resp.Status)
		assert.NotNil(t, enqueued)
		assert.Equal(t, "leave_request_cancelled", enqueued.EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not owner", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		lr := pendingRequest(employeeID, leaveTypeID)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}
		deps.balances.releaseFn = func(ctx context.Context, eid, ltid string, year, days int) (bool, error) {
			t.Fatal("release must not run for a non-owner")
			return false, nil
		}

		_, err := deps.service.Cancel(ctx, uuid.New().String(), lr.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrNotRequestOwner)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already cancelled", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		lr := pendingRequest(employeeID, leaveTypeID)
		lr.Status = leaverequest.StatusCancelled

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}

		_, err := deps.service.Cancel(ctx, employeeID, lr.ID.String())

		assertAppCode(t, err, apperror.CodeInvalidState)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveRequestService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		deps.repo.findDetailByIDFn = func(ctx context.Context, targetID string) (*leaverequest.LeaveRequestDetail, error) {
			return &leaverequest.LeaveRequestDetail{
				ID:            id,
				EmployeeID:    uuid.New(),
				EmployeeName:  "Ari Wibowo",
				LeaveTypeID:   uuid.New(),
				LeaveTypeName: "Annual Leave",
				StartDate:     time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
				EndDate:       time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
				TotalDays:     3,
				Status:        leaverequest.StatusPending,
			}, nil
		}

		resp, err := deps.service.GetByID(ctx, id.String())

		assert.NoError(t, err)
		assert.Equal(t, id.String(), resp.ID)
		assert.Equal(t, "Ari Wibowo", resp.EmployeeName)
		assert.Equal(t, "Annual Leave", resp.LeaveTypeName)
		assert.Equal(t, "2026-09-14", resp.StartDate)
	})

	t.Run("negative invalid id", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetByID(ctx, "not-a-uuid")

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidRequestID)
	})
}

func TestLeaveRequestService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("success with filters", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		deps.repo.listFn = func(ctx context.Context, f leaverequest.ListFilter) ([]leaverequest.LeaveRequestDetail, int64, error) {
			assert.Equal(t, leaverequest.StatusPending, f.Status)
			assert.NotNil(t, f.From)
			assert.Equal(t, "2026-09-01", f.From.Format("2006-01-02"))
			return []leaverequest.LeaveRequestDetail{}, 0, nil
		}

		_, total, err := deps.service.List(ctx, leaverequest.ListLeaveRequestsQuery{
			Status: leaverequest.StatusPending,
			From:   "2026-09-01",
			Page:   1,
		})

		assert.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("negative malformed from date", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		_, _, err := deps.service.List(ctx, leaverequest.ListLeaveRequestsQuery{From: "01-09-2026"})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
	})
}
