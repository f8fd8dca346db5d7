package dto

// ── 出勤模块 DTO ──

// AttendanceEventResponse 出勤事件
type AttendanceEventResponse struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// AttendanceActionResponse 签到/签退/休息操作结果
type AttendanceActionResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// EndBreakResponse 结束休息结果；WasLongBreak=true 表示休息超出宽限期，已拆分为签退+重新签到
type EndBreakResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	WasLongBreak bool   `json:"was_long_break"`
}

// TodayAttendanceResponse 今日出勤状态
type TodayAttendanceResponse struct {
	StudyDate      string                    `json:"study_date"`
	Status         string                    `json:"status"`
	LastEvent      *AttendanceEventResponse  `json:"last_event,omitempty"`
	Events         []AttendanceEventResponse `json:"events"`
	CurrentSubject string                    `json:"current_subject,omitempty"`
}

// TodayStudyTimeResponse 今日累计学习时长
// CheckInTime 非空时表示仍在学习中，前端需自行累加 now-CheckInTime
type TodayStudyTimeResponse struct {
	StudyDate    string  `json:"study_date"`
	TotalSeconds int64   `json:"total_seconds"`
	CheckInTime  *string `json:"check_in_time,omitempty"`
}

// WeeklyStudyTimeRequest 周学习时长查询参数（家长/管理员可指定学生）
type WeeklyStudyTimeRequest struct {
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
}

// WeeklyStudyTimeResponse 本周学习时长（分钟，向下取整，含进行中的时段）
type WeeklyStudyTimeResponse struct {
	StudentID    string `json:"student_id"`
	WeekStart    string `json:"week_start"`
	TotalMinutes int64  `json:"total_minutes"`
}
