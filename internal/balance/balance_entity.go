package balance

import (
	"time"

	"github.com/google/uuid"
)

// LeaveBalance holds the day counters for one (employee, leave type, year)
// bucket. used and pending only move through the guarded repository
// operations, so used + pending <= total_allocated always holds.
type LeaveBalance struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balances_bucket"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balances_bucket"`
	Year        int       `gorm:"type:int;not null;uniqueIndex:uq_leave_balances_bucket"`

	TotalAllocated int `gorm:"type:int;not null;default:0"`
	Used           int `gorm:"type:int;not null;default:0"`
	Pending        int `gorm:"type:int;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b LeaveBalance) Available() int {
	return b.TotalAllocated - b.Used - b.Pending
}
