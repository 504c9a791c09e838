package leaverequest

import (
	"time"

	"github.com/google/uuid"
)

// LeaveRequest is one leave application. Rows are never deleted; the status
// column is the audit trail's backbone and only ever leaves PENDING once.
type LeaveRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null"`

	StartDate time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate   time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`

	// Inclusive calendar-day span, fixed at submission time.
	TotalDays   int     `gorm:"type:int;not null;default:1"`
	Reason      string  `gorm:"type:text"`
	DocumentURL *string `gorm:"type:text"`

	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_status"`
	ApproverID      *uuid.UUID `gorm:"type:uuid"`
	ApproverComment *string    `gorm:"type:text"`
	ApprovedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LeaveRequestDetail is the read-side projection joined with display names.
// It carries no invariants; listings and detail fetches return it.
type LeaveRequestDetail struct {
	ID              uuid.UUID
	EmployeeID      uuid.UUID
	EmployeeName    string
	LeaveTypeID     uuid.UUID
	LeaveTypeName   string
	StartDate       time.Time
	EndDate         time.Time
	TotalDays       int
	Reason          string
	DocumentURL     *string
	Status          string
	ApproverID      *uuid.UUID
	ApproverName    *string
	ApproverComment *string
	ApprovedAt      *time.Time
	CreatedAt       time.Time
}
