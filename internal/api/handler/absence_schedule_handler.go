package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"study-hub/backend/internal/dto"
	"study-hub/backend/internal/service"
	"study-hub/backend/pkg/response"
)

// AbsenceScheduleHandler 外出日程模块 HTTP 处理器
type AbsenceScheduleHandler struct {
	scheduleSvc service.AbsenceScheduleService
}

// NewAbsenceScheduleHandler 创建 AbsenceScheduleHandler
func NewAbsenceScheduleHandler(scheduleSvc service.AbsenceScheduleService) *AbsenceScheduleHandler {
	return &AbsenceScheduleHandler{scheduleSvc: scheduleSvc}
}

// ────────────────────── 写操作 ──────────────────────

// Create 创建外出日程（学生创建为待审批；家长/管理员代建直接生效）
// POST /api/v1/absence-schedules
func (h *AbsenceScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateAbsenceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, schedule)
}

// Update 更新外出日程
// PUT /api/v1/absence-schedules/:id
func (h *AbsenceScheduleHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "日程ID不能为空")
		return
	}

	var req dto.UpdateAbsenceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// Approve 批准外出日程
// PUT /api/v1/absence-schedules/:id/approve
func (h *AbsenceScheduleHandler) Approve(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.Approve(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// Reject 拒绝外出日程（记录保留在"已拒绝"列表中）
// PUT /api/v1/absence-schedules/:id/reject
func (h *AbsenceScheduleHandler) Reject(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.Reject(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ToggleActive 切换启用状态
// PUT /api/v1/absence-schedules/:id/toggle-active
func (h *AbsenceScheduleHandler) ToggleActive(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.ToggleActive(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// Delete 删除外出日程
// DELETE /api/v1/absence-schedules/:id
func (h *AbsenceScheduleHandler) Delete(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── 查询 ──────────────────────

// ListMine 学生本人的全部日程
// GET /api/v1/absence-schedules/me
func (h *AbsenceScheduleHandler) ListMine(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.respondList(c)(h.scheduleSvc.ListForStudent(c.Request.Context(), caller, caller.UserID))
}

// ListToday 今天生效的日程
// GET /api/v1/absence-schedules/me/today
func (h *AbsenceScheduleHandler) ListToday(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.respondList(c)(h.scheduleSvc.GetTodaySchedules(c.Request.Context(), caller))
}

// ListForStudent 指定学生的全部日程
// GET /api/v1/absence-schedules/students/:id
func (h *AbsenceScheduleHandler) ListForStudent(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.respondList(c)(h.scheduleSvc.ListForStudent(c.Request.Context(), caller, c.Param("id")))
}

// ListPendingForStudent 指定学生的待审批日程
// GET /api/v1/absence-schedules/students/:id/pending
func (h *AbsenceScheduleHandler) ListPendingForStudent(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.respondList(c)(h.scheduleSvc.ListPendingForStudent(c.Request.Context(), caller, c.Param("id")))
}

// ListRejectedForStudent 指定学生的已拒绝日程
// GET /api/v1/absence-schedules/students/:id/rejected
func (h *AbsenceScheduleHandler) ListRejectedForStudent(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.respondList(c)(h.scheduleSvc.ListRejectedForStudent(c.Request.Context(), caller, c.Param("id")))
}

// ListPendingForBranch 本分店待审批日程
// GET /api/v1/absence-schedules/pending
func (h *AbsenceScheduleHandler) ListPendingForBranch(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.respondList(c)(h.scheduleSvc.ListPendingForBranch(c.Request.Context(), caller))
}

// ListApproved 本分店已批准日程（含学生姓名）
// GET /api/v1/absence-schedules/approved
func (h *AbsenceScheduleHandler) ListApproved(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.respondList(c)(h.scheduleSvc.ListApprovedWithStudentNames(c.Request.Context(), caller))
}

// ExportMyCalendar 导出本人日程为 .ics
// GET /api/v1/absence-schedules/me/calendar.ics
func (h *AbsenceScheduleHandler) ExportMyCalendar(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.exportCalendar(c, caller, caller.UserID)
}

// ExportStudentCalendar 导出指定学生日程为 .ics
// GET /api/v1/absence-schedules/students/:id/calendar.ics
func (h *AbsenceScheduleHandler) ExportStudentCalendar(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.exportCalendar(c, caller, c.Param("id"))
}

func (h *AbsenceScheduleHandler) exportCalendar(c *gin.Context, caller service.Caller, studentID string) {
	data, filename, err := h.scheduleSvc.ExportCalendar(c.Request.Context(), caller, studentID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// respondList 列表查询的统一出口
func (h *AbsenceScheduleHandler) respondList(c *gin.Context) func([]dto.AbsenceScheduleResponse, error) {
	return func(list []dto.AbsenceScheduleResponse, err error) {
		if err != nil {
			h.handleScheduleError(c, err)
			return
		}
		response.OK(c, gin.H{"list": list})
	}
}

// handleScheduleError 统一处理外出日程模块业务错误
func (h *AbsenceScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	if handleAccessError(c, err) || handleValidationError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrAbsenceScheduleNotFound):
		response.NotFound(c, 15001, "外出日程不存在")
	case errors.Is(err, service.ErrAbsenceScheduleInvalidTransition):
		response.Conflict(c, 15002, "只有待审批的外出日程可以审批或拒绝")
	case errors.Is(err, service.ErrAbsenceScheduleApproverOnly):
		response.Forbidden(c, 15003, "只有家长或管理员可以审批外出日程")
	default:
		response.InternalError(c)
	}
}
