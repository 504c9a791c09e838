package leaverequest

import (
	"errors"
	"strings"

	leaveerrors "dayflow/internal/leaverequest/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23503" && pgErr.ConstraintName == "fk_leave_requests_leave_type" {
			return leaveerrors.ErrLeaveTypeNotFound
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "violates foreign key constraint") && strings.Contains(errMsg, "fk_leave_requests_leave_type") {
		return leaveerrors.ErrLeaveTypeNotFound
	}

	return err
}
