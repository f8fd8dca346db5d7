package model

// 通知类型
const (
	NotificationLate       = "late_arrival"
	NotificationEarlyLeave = "early_departure"
)

// Notification 站内通知表 — 对应 notifications
// 推送渠道（App Push / 카카오 알림톡）由独立服务消费此表
type Notification struct {
	NotificationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Type           string `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string `gorm:"type:text;not null"                             json:"content"`
	Link           string `gorm:"type:varchar(255)"                              json:"link,omitempty"`
	IsRead         bool   `gorm:"not null;default:false"                         json:"is_read"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
