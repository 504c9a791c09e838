package balance

import (
	"errors"
	"strings"

	balanceerrors "dayflow/internal/balance/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23503" {
			switch pgErr.ConstraintName {
			case "fk_leave_balances_employee":
				return balanceerrors.ErrUnknownEmployee
			case "fk_leave_balances_leave_type":
				return balanceerrors.ErrUnknownLeaveType
			}
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "violates foreign key constraint") && strings.Contains(errMsg, "fk_leave_balances_employee") {
		return balanceerrors.ErrUnknownEmployee
	}
	if strings.Contains(errMsg, "violates foreign key constraint") && strings.Contains(errMsg, "fk_leave_balances_leave_type") {
		return balanceerrors.ErrUnknownLeaveType
	}

	return err
}
