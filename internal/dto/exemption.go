package dto

// ExemptionCheckRequest 免责检查参数
type ExemptionCheckRequest struct {
	StudentID string `form:"student_id" binding:"required,uuid"`
	At        string `form:"at"         binding:"omitempty"` // RFC3339，缺省为当前时间
	DateType  string `form:"date_type"  binding:"omitempty,oneof=semester vacation"`
}

// ExemptionCheckResponse 免责检查结果
type ExemptionCheckResponse struct {
	IsExempted     bool                     `json:"is_exempted"`
	Schedule       *AbsenceScheduleResponse `json:"schedule,omitempty"`
	ExemptionStart string                   `json:"exemption_start,omitempty"`
	ExemptionEnd   string                   `json:"exemption_end,omitempty"`
}

// WeeklyReportRequest 周报导出参数
type WeeklyReportRequest struct {
	WeekOf string `form:"week_of" binding:"omitempty,datetime=2006-01-02"`
}
