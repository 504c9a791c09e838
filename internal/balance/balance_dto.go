package balance

type AllocateBalanceRequest struct {
	EmployeeID     string `json:"employee_id" binding:"required,uuid"`
	LeaveTypeID    string `json:"leave_type_id" binding:"required,uuid"`
	Year           int    `json:"year" binding:"required"`
	TotalAllocated int    `json:"total_allocated"`
}

type BalanceResponse struct {
	EmployeeID     string `json:"employee_id"`
	LeaveTypeID    string `json:"leave_type_id"`
	Year           int    `json:"year"`
	TotalAllocated int    `json:"total_allocated"`
	Used           int    `json:"used"`
	Pending        int    `json:"pending"`
	Available      int    `json:"available"`
}
