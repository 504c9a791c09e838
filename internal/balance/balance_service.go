package balance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	balanceerrors "dayflow/internal/balance/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	GetBalances(ctx context.Context, employeeID string, year int) ([]BalanceResponse, error)
	Allocate(ctx context.Context, req AllocateBalanceRequest) (BalanceResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) GetBalances(ctx context.Context, employeeID string, year int) ([]BalanceResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, balanceerrors.ErrInvalidEmployeeID
	}
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	if year < 1000 || year > 9999 {
		return nil, balanceerrors.ErrInvalidYear
	}

	balances, err := s.repo.FindByEmployeeYear(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(balances), nil
}

// Allocate provisions or raises the yearly allocation for one bucket. The
// UPSERT refuses to shrink below what is already used or pending, so the
// balance invariant survives re-allocation.
func (s *service) Allocate(ctx context.Context, req AllocateBalanceRequest) (BalanceResponse, error) {
	s.logger.Debug("allocate balance requested",
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.Int("year", req.Year),
		zap.Int("total_allocated", req.TotalAllocated),
	)

	if _, err := uuid.Parse(req.EmployeeID); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidEmployeeID
	}
	if _, err := uuid.Parse(req.LeaveTypeID); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidLeaveTypeID
	}
	if req.Year < 1000 || req.Year > 9999 {
		return BalanceResponse{}, balanceerrors.ErrInvalidYear
	}
	if req.TotalAllocated < 0 {
		return BalanceResponse{}, balanceerrors.ErrInvalidAllocation
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("allocate balance begin tx failed", zap.Error(err))
		return BalanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	ok, err := qtx.UpsertAllocation(ctx, req.EmployeeID, req.LeaveTypeID, req.Year, req.TotalAllocated)
	if err != nil {
		s.logger.Error("allocate balance upsert failed", zap.Error(err))
		return BalanceResponse{}, mapRepositoryError(err)
	}
	if !ok {
		s.logger.Warn("allocate balance below committed days",
			zap.String("employee_id", req.EmployeeID),
			zap.Int("total_allocated", req.TotalAllocated),
		)
		return BalanceResponse{}, balanceerrors.ErrAllocationBelowCommitted
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("allocate balance commit failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	b, err := s.repo.FindOne(ctx, req.EmployeeID, req.LeaveTypeID, req.Year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, balanceerrors.ErrBalanceNotFound
		}
		return BalanceResponse{}, err
	}

	s.logger.Info("allocate balance success",
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.Int("year", req.Year),
	)

	return mapToResponse(*b), nil
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	return BalanceResponse{
		EmployeeID:     b.EmployeeID.String(),
		LeaveTypeID:    b.LeaveTypeID.String(),
		Year:           b.Year,
		TotalAllocated: b.TotalAllocated,
		Used:           b.Used,
		Pending:        b.Pending,
		Available:      b.Available(),
	}
}

func mapToListResponse(balances []LeaveBalance) []BalanceResponse {
	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = mapToResponse(b)
	}
	return resp
}
