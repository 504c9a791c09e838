package leaverequest

type SubmitLeaveRequest struct {
	LeaveTypeID string  `json:"leave_type_id" binding:"required,uuid"`
	StartDate   string  `json:"start_date" binding:"required"`
	EndDate     string  `json:"end_date" binding:"required"`
	Reason      string  `json:"reason"`
	DocumentURL *string `json:"document_url"`
}

type ApproveLeaveRequest struct {
	ApproverComment string `json:"approver_comment"`
}

type RejectLeaveRequest struct {
	ApproverComment string `json:"approver_comment" binding:"required"`
}

type ListLeaveRequestsQuery struct {
	Status      string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED"`
	EmployeeID  string `form:"employee_id" binding:"omitempty,uuid"`
	LeaveTypeID string `form:"leave_type_id" binding:"omitempty,uuid"`
	From        string `form:"from"`
	To          string `form:"to"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}

type LeaveRequestResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	EmployeeName    string  `json:"employee_name,omitempty"`
	LeaveTypeID     string  `json:"leave_type_id"`
	LeaveTypeName   string  `json:"leave_type_name,omitempty"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	TotalDays       int     `json:"total_days"`
	Reason          string  `json:"reason"`
	DocumentURL     *string `json:"document_url,omitempty"`
	Status          string  `json:"status"`
	ApproverID      *string `json:"approver_id,omitempty"`
	ApproverName    *string `json:"approver_name,omitempty"`
	ApproverComment *string `json:"approver_comment,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
}
