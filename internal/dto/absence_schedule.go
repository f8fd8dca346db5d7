package dto

// ── 外出日程模块 DTO ──

// CreateAbsenceScheduleRequest 创建外出日程请求
// 学生本人创建时 StudentID 可省略；家长/管理员代为创建时必填
type CreateAbsenceScheduleRequest struct {
	StudentID     string `json:"student_id"     binding:"omitempty,uuid"`
	Title         string `json:"title"          binding:"required,min=1,max=100"`
	IsRecurring   bool   `json:"is_recurring"`
	DaysOfWeek    []int  `json:"days_of_week"   binding:"omitempty,dive,min=0,max=6"`
	StartTime     string `json:"start_time"     binding:"required,hhmm"`
	EndTime       string `json:"end_time"       binding:"required,hhmm"`
	DateType      string `json:"date_type"      binding:"omitempty,oneof=semester vacation all"`
	ValidFrom     string `json:"valid_from"     binding:"omitempty,datetime=2006-01-02"`
	ValidUntil    string `json:"valid_until"    binding:"omitempty,datetime=2006-01-02"`
	SpecificDate  string `json:"specific_date"  binding:"omitempty,datetime=2006-01-02"`
	BufferMinutes *int   `json:"buffer_minutes" binding:"omitempty,min=0,max=180"`
}

// UpdateAbsenceScheduleRequest 更新外出日程请求（部分更新）
type UpdateAbsenceScheduleRequest struct {
	Title         *string `json:"title"          binding:"omitempty,min=1,max=100"`
	IsRecurring   *bool   `json:"is_recurring"`
	DaysOfWeek    *[]int  `json:"days_of_week"   binding:"omitempty,dive,min=0,max=6"`
	StartTime     *string `json:"start_time"     binding:"omitempty,hhmm"`
	EndTime       *string `json:"end_time"       binding:"omitempty,hhmm"`
	DateType      *string `json:"date_type"      binding:"omitempty,oneof=semester vacation all"`
	ValidFrom     *string `json:"valid_from"     binding:"omitempty,datetime=2006-01-02"`
	ValidUntil    *string `json:"valid_until"    binding:"omitempty,datetime=2006-01-02"`
	SpecificDate  *string `json:"specific_date"  binding:"omitempty,datetime=2006-01-02"`
	BufferMinutes *int    `json:"buffer_minutes" binding:"omitempty,min=0,max=180"`
}

// AbsenceScheduleResponse 外出日程响应
type AbsenceScheduleResponse struct {
	ID             string `json:"id"`
	StudentID      string `json:"student_id"`
	StudentName    string `json:"student_name,omitempty"`
	Title          string `json:"title"`
	IsRecurring    bool   `json:"is_recurring"`
	RecurrenceType string `json:"recurrence_type"`
	DaysOfWeek     []int  `json:"days_of_week"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	DateType       string `json:"date_type"`
	ValidFrom      string `json:"valid_from,omitempty"`
	ValidUntil     string `json:"valid_until,omitempty"`
	SpecificDate   string `json:"specific_date,omitempty"`
	BufferMinutes  int    `json:"buffer_minutes"`
	IsActive       bool   `json:"is_active"`
	Status         string `json:"status"`
	DecidedAt      string `json:"decided_at,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}
