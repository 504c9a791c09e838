package leavetype

import (
	"time"

	"github.com/google/uuid"
)

type LeaveType struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code string    `gorm:"type:varchar(30);not null;uniqueIndex:uq_leave_types_code"`
	Name string    `gorm:"type:varchar(100);not null"`

	// Days granted per employee per year when a balance row is provisioned.
	DefaultAnnualAllocation int  `gorm:"type:int;not null;default:0"`
	RequiresDocument        bool `gorm:"type:boolean;not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
