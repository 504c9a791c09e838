package leaverequest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"dayflow/internal/balance"
	"dayflow/internal/events"
	leaveerrors "dayflow/internal/leaverequest/errors"
	"dayflow/internal/messaging/kafka"
	"dayflow/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

//go:generate mockgen -source=leave_request_service.go -destination=mock/leave_request_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, employeeID string, req SubmitLeaveRequest) (LeaveRequestResponse, error)
	Approve(ctx context.Context, approverID, id, approverComment string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, approverID, id, approverComment string) (LeaveRequestResponse, error)
	Cancel(ctx context.Context, employeeID, id string) (LeaveRequestResponse, error)
	GetByID(ctx context.Context, id string) (LeaveRequestResponse, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequestResponse, error)
	List(ctx context.Context, q ListLeaveRequestsQuery) ([]LeaveRequestResponse, int64, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	balances balance.Repository
	outbox   kafka.OutboxRepository
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, balances balance.Repository, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, balances, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	balances balance.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leaverequest.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leaverequest.service")
	}
	return &service{db: db, repo: repo, balances: balances, outbox: outboxRepo, logger: l}
}

// Submit reserves the requested days and creates the PENDING request in one
// transaction. The reservation guard runs inside a single conditional UPDATE,
// so two racing submissions cannot jointly overdraw a bucket.
//
// total_days is a naive inclusive calendar count: weekends and holidays are
// NOT excluded. Business-day policy is deliberately out of scope here.
func (s *service) Submit(ctx context.Context, employeeID string, req SubmitLeaveRequest) (LeaveRequestResponse, error) {
	s.logger.Debug("submit leave request",
		zap.String("employee_id", employeeID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	leaveTypeUUID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidLeaveTypeID
	}

	startDate, endDate, err := validateDates(req.StartDate, req.EndDate)
	if err != nil {
		s.logger.Warn("submit leave validation failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	totalDays := int(endDate.Sub(startDate).Hours()/24) + 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qbal := s.balances.WithTx(tx)

	// Year bucket follows the start date, both here and at decision time.
	reserved, err := qbal.Reserve(ctx, employeeID, req.LeaveTypeID, startDate.Year(), totalDays)
	if err != nil {
		s.logger.Error("submit leave reserve failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if !reserved {
		s.logger.Warn("submit leave insufficient balance",
			zap.String("employee_id", employeeID),
			zap.String("leave_type_id", req.LeaveTypeID),
			zap.Int("year", startDate.Year()),
			zap.Int("total_days", totalDays),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrInsufficientBalance
	}

	lr := &LeaveRequest{
		ID:          uuid.New(),
		EmployeeID:  employeeUUID,
		LeaveTypeID: leaveTypeUUID,
		StartDate:   startDate,
		EndDate:     endDate,
		TotalDays:   totalDays,
		Reason:      req.Reason,
		DocumentURL: req.DocumentURL,
		Status:      StatusPending,
	}

	if err := qtx.Create(ctx, lr); err != nil {
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return LeaveRequestResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueueEvent(ctx, tx, lr, events.LeaveRequestSubmitted, employeeID); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("submit leave success",
		zap.String("leave_request_id", lr.ID.String()),
		zap.String("employee_id", employeeID),
		zap.Int("total_days", totalDays),
	)

	return mapToResponse(*lr), nil
}

func (s *service) Approve(ctx context.Context, approverID, id, approverComment string) (LeaveRequestResponse, error) {
	return s.decide(ctx, approverID, id, StatusApproved, approverComment)
}

func (s *service) Reject(ctx context.Context, approverID, id, approverComment string) (LeaveRequestResponse, error) {
	// Reject reason is part of the audit trail; refuse before touching state.
	if strings.TrimSpace(approverComment) == "" {
		return LeaveRequestResponse{}, leaveerrors.ErrApproverCommentRequired
	}
	return s.decide(ctx, approverID, id, StatusRejected, approverComment)
}

// decide carries both approval and rejection: lock the row, transition the
// status, reconcile the balance, all in one transaction.
func (s *service) decide(ctx context.Context, approverID, id, targetStatus, approverComment string) (LeaveRequestResponse, error) {
	s.logger.Debug("decide leave request",
		zap.String("leave_request_id", id),
		zap.String("approver_id", approverID),
		zap.String("target_status", targetStatus),
	)

	approverUUID, err := uuid.Parse(approverID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidApproverID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qbal := s.balances.WithTx(tx)

	lr, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		s.logger.Error("decide leave fetch failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if lr.Status != StatusPending {
		s.logger.Warn("decide leave already decided",
			zap.String("leave_request_id", id),
			zap.String("status", lr.Status),
		)
		return LeaveRequestResponse{}, leaveerrors.AlreadyDecided(lr.Status)
	}

	now := time.Now().UTC()
	lr.Status = targetStatus
	lr.ApproverID = &approverUUID
	if strings.TrimSpace(approverComment) != "" {
		lr.ApproverComment = &approverComment
	}
	if targetStatus == StatusApproved {
		lr.ApprovedAt = &now
	}

	ok, err := qtx.ApplyDecision(ctx, lr)
	if err != nil {
		s.logger.Error("decide leave persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if !ok {
		// Lost a race despite the lock; the guard is the source of truth.
		return LeaveRequestResponse{}, leaveerrors.AlreadyDecided(lr.Status)
	}

	if err := s.reconcile(ctx, qbal, lr, targetStatus); err != nil {
		return LeaveRequestResponse{}, err
	}

	eventType := events.LeaveRequestApproved
	if targetStatus == StatusRejected {
		eventType = events.LeaveRequestRejected
	}
	if err := s.enqueueEvent(ctx, tx, lr, eventType, approverID); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide leave commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("decide leave success",
		zap.String("leave_request_id", id),
		zap.String("status", targetStatus),
	)

	return mapToResponse(*lr), nil
}

func (s *service) Cancel(ctx context.Context, employeeID, id string) (LeaveRequestResponse, error) {
	s.logger.Debug("cancel leave request",
		zap.String("leave_request_id", id),
		zap.String("employee_id", employeeID),
	)

	if _, err := uuid.Parse(employeeID); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qbal := s.balances.WithTx(tx)

	lr, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		s.logger.Error("cancel leave fetch failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if lr.EmployeeID.String() != employeeID {
		return LeaveRequestResponse{}, leaveerrors.ErrNotRequestOwner
	}
	if lr.Status != StatusPending {
		return LeaveRequestResponse{}, leaveerrors.AlreadyDecided(lr.Status)
	}

	lr.Status = StatusCancelled

	ok, err := qtx.ApplyDecision(ctx, lr)
	if err != nil {
		s.logger.Error("cancel leave persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if !ok {
		return LeaveRequestResponse{}, leaveerrors.AlreadyDecided(lr.Status)
	}

	if err := s.reconcile(ctx, qbal, lr, StatusCancelled); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := s.enqueueEvent(ctx, tx, lr, events.LeaveRequestCancelled, employeeID); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("cancel leave success", zap.String("leave_request_id", id))

	return mapToResponse(*lr), nil
}

// reconcile settles the reservation made at submission time: approval turns
// pending days into used, rejection/cancellation releases them. A missing
// bucket here means the data is corrupt, not that the caller did anything
// wrong.
func (s *service) reconcile(ctx context.Context, qbal balance.Repository, lr *LeaveRequest, targetStatus string) error {
	year := lr.StartDate.Year()

	var (
		ok  bool
		err error
	)
	if targetStatus == StatusApproved {
		ok, err = qbal.Consume(ctx, lr.EmployeeID.String(), lr.LeaveTypeID.String(), year, lr.TotalDays)
	} else {
		ok, err = qbal.Release(ctx, lr.EmployeeID.String(), lr.LeaveTypeID.String(), year, lr.TotalDays)
	}
	if err != nil {
		s.logger.Error("reconcile balance failed", zap.Error(err))
		return err
	}
	if !ok {
		s.logger.Error("reconcile balance missing reservation",
			zap.String("leave_request_id", lr.ID.String()),
			zap.String("employee_id", lr.EmployeeID.String()),
			zap.String("leave_type_id", lr.LeaveTypeID.String()),
			zap.Int("year", year),
			zap.Int("total_days", lr.TotalDays),
		)
		return leaveerrors.ErrBalanceConsistency
	}
	return nil
}

func (s *service) enqueueEvent(ctx context.Context, tx *sql.Tx, lr *LeaveRequest, eventType, actorID string) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event := events.LeaveRequestLifecycleEvent{
		EventType:   eventType,
		RequestID:   rid,
		LeaveID:     lr.ID.String(),
		EmployeeID:  lr.EmployeeID.String(),
		LeaveTypeID: lr.LeaveTypeID.String(),
		TotalDays:   lr.TotalDays,
		Status:      lr.Status,
		ActorID:     actorID,
		OccurredAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal lifecycle event failed", zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "leave_request",
		AggregateID:   lr.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveRequestLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("enqueue lifecycle event failed",
			zap.String("leave_request_id", lr.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveRequestResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRequestID
	}
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	return mapDetailToResponse(*detail), nil
}

func (s *service) ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequestResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, leaveerrors.ErrInvalidEmployeeID
	}
	details, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapDetailsToResponse(details), nil
}

func (s *service) List(ctx context.Context, q ListLeaveRequestsQuery) ([]LeaveRequestResponse, int64, error) {
	filter := ListFilter{
		Status:      q.Status,
		EmployeeID:  q.EmployeeID,
		LeaveTypeID: q.LeaveTypeID,
		Page:        q.Page,
		PageSize:    q.PageSize,
	}
	if q.From != "" {
		from, err := parseDate(q.From)
		if err != nil {
			return nil, 0, err
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := parseDate(q.To)
		if err != nil {
			return nil, 0, err
		}
		filter.To = &to
	}

	details, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return mapDetailsToResponse(details), total, nil
}

func validateDates(start, end string) (time.Time, time.Time, error) {
	startDate, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}

	today := todayUTC()
	if startDate.Before(today) {
		return time.Time{}, time.Time{}, leaveerrors.ErrStartDateInPast
	}
	if startDate.After(today.AddDate(1, 0, 0)) {
		return time.Time{}, time.Time{}, leaveerrors.ErrStartDateTooFarAhead
	}

	return startDate, endDate, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

// todayUTC truncates now to a calendar date so time-of-day never affects the
// past/future checks.
func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func mapToResponse(lr LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:          lr.ID.String(),
		EmployeeID:  lr.EmployeeID.String(),
		LeaveTypeID: lr.LeaveTypeID.String(),
		StartDate:   lr.StartDate.Format("2006-01-02"),
		EndDate:     lr.EndDate.Format("2006-01-02"),
		TotalDays:   lr.TotalDays,
		Reason:      lr.Reason,
		DocumentURL: lr.DocumentURL,
		Status:      lr.Status,
	}
	if lr.ApproverID != nil {
		v := lr.ApproverID.String()
		resp.ApproverID = &v
	}
	resp.ApproverComment = lr.ApproverComment
	if lr.ApprovedAt != nil {
		v := lr.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if !lr.CreatedAt.IsZero() {
		resp.CreatedAt = lr.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func mapDetailToResponse(d LeaveRequestDetail) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:            d.ID.String(),
		EmployeeID:    d.EmployeeID.String(),
		EmployeeName:  d.EmployeeName,
		LeaveTypeID:   d.LeaveTypeID.String(),
		LeaveTypeName: d.LeaveTypeName,
		StartDate:     d.StartDate.Format("2006-01-02"),
		EndDate:       d.EndDate.Format("2006-01-02"),
		TotalDays:     d.TotalDays,
		Reason:        d.Reason,
		DocumentURL:   d.DocumentURL,
		Status:        d.Status,
		ApproverName:  d.ApproverName,
	}
	if d.ApproverID != nil {
		v := d.ApproverID.String()
		resp.ApproverID = &v
	}
	resp.ApproverComment = d.ApproverComment
	if d.ApprovedAt != nil {
		v := d.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if !d.CreatedAt.IsZero() {
		resp.CreatedAt = d.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func mapDetailsToResponse(details []LeaveRequestDetail) []LeaveRequestResponse {
	resp := make([]LeaveRequestResponse, len(details))
	for i, d := range details {
		resp[i] = mapDetailToResponse(d)
	}
	return resp
}
