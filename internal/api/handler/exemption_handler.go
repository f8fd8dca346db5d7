package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"study-hub/backend/internal/dto"
	"study-hub/backend/internal/service"
	"study-hub/backend/pkg/response"
)

// ExemptionHandler 免责排查 HTTP 处理器
type ExemptionHandler struct {
	exemptionSvc service.ExemptionService
	now          func() time.Time
}

// NewExemptionHandler 创建 ExemptionHandler
func NewExemptionHandler(exemptionSvc service.ExemptionService) *ExemptionHandler {
	return &ExemptionHandler{exemptionSvc: exemptionSvc, now: time.Now}
}

// Check 查询学生在某一时刻是否处于外出免责区间
// GET /api/v1/exemptions/check?student_id=xxx&at=2024-03-11T09:00:00+09:00
func (h *ExemptionHandler) Check(c *gin.Context) {
	var req dto.ExemptionCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	at := h.now()
	if req.At != "" {
		t, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			response.ValidationFailed(c, "at", "时间须为 RFC3339 格式")
			return
		}
		at = t
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.exemptionSvc.Check(c.Request.Context(), caller, req.StudentID, at, req.DateType)
	if err != nil {
		if handleAccessError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
