package balanceerrors

import (
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
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"year must be a four-digit calendar year",
		http.StatusBadRequest,
	)
	ErrInvalidAllocation = apperror.New(
		apperror.CodeInvalidInput,
		"total_allocated must not be negative",
		http.StatusBadRequest,
	)
	ErrAllocationBelowCommitted = apperror.New(
		apperror.CodeConflict,
		"total_allocated cannot be lowered below days already used or pending",
		http.StatusConflict,
	)
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found",
		http.StatusNotFound,
	)
	ErrUnknownEmployee = apperror.New(
		apperror.CodeNotFound,
		"employee does not exist",
		http.StatusNotFound,
	)
	ErrUnknownLeaveType = apperror.New(
		apperror.CodeNotFound,
		"leave type does not exist",
		http.StatusNotFound,
	)
)
