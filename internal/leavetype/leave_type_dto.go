package leavetype

type LeaveTypeResponse struct {
	ID                      string `json:"id"`
	Code                    string `json:"code"`
	Name                    string `json:"name"`
	DefaultAnnualAllocation int    `json:"default_annual_allocation"`
	RequiresDocument        bool   `json:"requires_document"`
}
