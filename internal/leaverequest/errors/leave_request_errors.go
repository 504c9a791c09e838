package leaverequesterrors

import (
	"fmt"
	"net/http"

	"dayflow/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveTypeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave type id",
		http.StatusBadRequest,
	)
	ErrInvalidApproverID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid approver id",
		http.StatusBadRequest,
	)
	ErrInvalidRequestID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrStartDateInPast = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must not be in the past",
		http.StatusBadRequest,
	)
	ErrStartDateTooFarAhead = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be within one year from today",
		http.StatusBadRequest,
	)
	ErrApproverCommentRequired = apperror.New(
		apperror.CodeInvalidInput,
		"approver_comment is required when rejecting",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"not enough leave balance for the requested period",
		http.StatusConflict,
	)
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrLeaveTypeNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave type does not exist",
		http.StatusNotFound,
	)
	ErrNotRequestOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requester may cancel this leave request",
		http.StatusForbidden,
	)
	// ErrBalanceConsistency means a reserved request has no matching balance
	// bucket. That cannot happen through this service's write path; treat as
	// data corruption, not something the caller can retry.
	ErrBalanceConsistency = apperror.New(
		apperror.CodeConsistencyError,
		"leave balance missing for a reserved request",
		http.StatusInternalServerError,
	)
)

// AlreadyDecided reports an attempted transition on a request that has left
// PENDING, naming the state it is stuck in.
func AlreadyDecided(status string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("leave request is already %s", status),
		http.StatusConflict,
	)
}
