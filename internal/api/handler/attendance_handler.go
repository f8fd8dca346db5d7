package handler

import (
	"github.com/gin-gonic/gin"

	"study-hub/backend/internal/dto"
	"study-hub/backend/internal/model"
	"study-hub/backend/internal/service"
	"study-hub/backend/pkg/response"
)

// AttendanceHandler 出勤模块 HTTP 处理器
// 打卡类接口只对学生本人开放，student_id 取自 Token
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// CheckIn 签到
// POST /api/v1/attendance/check-in
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.CheckIn(c.Request.Context(), studentID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// CheckOut 签退
// POST /api/v1/attendance/check-out
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.CheckOut(c.Request.Context(), studentID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// StartBreak 开始休息
// POST /api/v1/attendance/break-start
func (h *AttendanceHandler) StartBreak(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.StartBreak(c.Request.Context(), studentID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// EndBreak 结束休息（超出宽限期时自动拆分为签退+签到）
// POST /api/v1/attendance/break-end
func (h *AttendanceHandler) EndBreak(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.EndBreak(c.Request.Context(), studentID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// GetToday 今日出勤状态
// GET /api/v1/attendance/today
func (h *AttendanceHandler) GetToday(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.GetTodayAttendance(c.Request.Context(), studentID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// GetTodayStudyTime 今日累计学习时长
// GET /api/v1/attendance/today/study-time
func (h *AttendanceHandler) GetTodayStudyTime(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.GetTodayStudyTime(c.Request.Context(), studentID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// GetWeeklyStudyTime 本周学习时长（家长/管理员可通过 student_id 查询）
// GET /api/v1/attendance/weekly?student_id=xxx
func (h *AttendanceHandler) GetWeeklyStudyTime(c *gin.Context) {
	var req dto.WeeklyStudyTimeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	if req.StudentID == "" && caller.Role != model.RoleStudent {
		response.BadRequest(c, 10001, "student_id 不能为空")
		return
	}

	result, err := h.attendanceSvc.GetWeeklyStudyTime(c.Request.Context(), caller, req.StudentID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// handleAttendanceError 统一处理出勤模块业务错误
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	if handleAccessError(c, err) {
		return
	}
	response.InternalError(c)
}
