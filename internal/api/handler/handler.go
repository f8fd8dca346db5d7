package handler

import "study-hub/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Attendance      *AttendanceHandler
	AbsenceSchedule *AbsenceScheduleHandler
	Exemption       *ExemptionHandler
	Export          *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Attendance:      NewAttendanceHandler(svc.Attendance),
		AbsenceSchedule: NewAbsenceScheduleHandler(svc.AbsenceSchedule),
		Exemption:       NewExemptionHandler(svc.Exemption),
		Export:          NewExportHandler(svc.Export),
	}
}
