package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"timeclock/internal/api/middleware"
	"timeclock/internal/dto"
	"timeclock/internal/service"
	pkgerrors "timeclock/pkg/errors"
	"timeclock/pkg/response"
	"timeclock/pkg/timeutil"
)

// PunchHandler 打卡模块 HTTP 处理器
type PunchHandler struct {
	punchSvc service.PunchService
}

// NewPunchHandler 创建 PunchHandler
func NewPunchHandler(punchSvc service.PunchService) *PunchHandler {
	return &PunchHandler{punchSvc: punchSvc}
}

// GetPunches 查询日期范围内已结束的打卡
// GET /api/TimePunch?start=&end=
func (h *PunchHandler) GetPunches(c *gin.Context) {
	authID, ok := MustGetAuthID(c)
	if !ok {
		return
	}
	start, end, ok := bindRange(c)
	if !ok {
		return
	}

	records, err := h.punchSvc.GetPunchRecords(c.Request.Context(), start, end, authID)
	if err != nil {
		h.handlePunchError(c, err)
		return
	}

	response.OK(c, records)
}

// InsertPunch 上班 / 下班打卡，返回打卡后的最后一条记录（可能为 null）
// POST /api/TimePunch
func (h *PunchHandler) InsertPunch(c *gin.Context) {
	authID, ok := MustGetAuthID(c)
	if !ok {
		return
	}

	var req dto.PunchInfo
	if !bindJSON(c, &req) {
		return
	}

	if err := h.punchSvc.InsertPunch(c.Request.Context(), &req, authID); err != nil {
		h.handlePunchError(c, err)
		return
	}

	last, err := h.punchSvc.GetLastPunch(c.Request.Context(), authID)
	if err != nil {
		h.handlePunchError(c, err)
		return
	}

	response.OK(c, last)
}

// GetLastPunch 最近一次打卡
// GET /api/TimePunch/lastpunch
func (h *PunchHandler) GetLastPunch(c *gin.Context) {
	authID, ok := MustGetAuthID(c)
	if !ok {
		return
	}

	last, err := h.punchSvc.GetLastPunch(c.Request.Context(), authID)
	if err != nil {
		h.handlePunchError(c, err)
		return
	}
	if last == nil {
		response.NotFound(c, 20001, "No punch records found")
		return
	}

	response.OK(c, last)
}

// UpdatePunch 修改打卡
// PUT /api/TimePunch
func (h *PunchHandler) UpdatePunch(c *gin.Context) {
	authID, ok := MustGetAuthID(c)
	if !ok {
		return
	}

	var req dto.PunchUpdateDto
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.punchSvc.UpdatePunch(c.Request.Context(), &req, authID)
	if err != nil {
		h.handlePunchError(c, err)
		return
	}

	response.OK(c, record)
}

// DeletePunch 删除打卡
// DELETE /api/TimePunch/:punchId
func (h *PunchHandler) DeletePunch(c *gin.Context) {
	authID, ok := MustGetAuthID(c)
	if !ok {
		return
	}

	// punch_id 为 uuid 列，格式不合法的 id 不可能存在
	punchID := c.Param("punchId")
	if _, err := uuid.Parse(punchID); err != nil {
		response.NotFound(c, 20001, "Punch not found")
		return
	}

	if err := h.punchSvc.DeletePunch(c.Request.Context(), punchID, authID); err != nil {
		h.handlePunchError(c, err)
		return
	}

	response.NoContent(c)
}

// GetSummary 按工时类别汇总
// GET /api/TimePunch/summary?start=&end=
func (h *PunchHandler) GetSummary(c *gin.Context) {
	authID, ok := MustGetAuthID(c)
	if !ok {
		return
	}
	start, end, ok := bindRange(c)
	if !ok {
		return
	}

	summary, err := h.punchSvc.Summarize(c.Request.Context(), start, end, authID)
	if err != nil {
		h.handlePunchError(c, err)
		return
	}

	response.OK(c, summary)
}

func (h *PunchHandler) handlePunchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPunchNotFound):
		response.NotFound(c, 20001, "Punch not found")
	case errors.Is(err, service.ErrPunchNotOwner):
		response.Unauthorized(c, 20002, "You are not allowed to modify this punch")
	case errors.Is(err, service.ErrPunchInvalidRange):
		response.BadRequest(c, 20003, "PunchOut must be after PunchIn")
	case errors.Is(err, service.ErrPunchValidation):
		response.BadRequest(c, 20003, "Invalid punch data")
	case errors.Is(err, pkgerrors.ErrLockNotAcquired):
		response.Error(c, http.StatusInternalServerError, 20004, "Another punch operation is in progress, please retry")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// ── 辅助函数 ──

// bindJSON 绑定并校验 JSON 请求体，失败时写入 400 / 413
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Request body too large")
			return false
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "Invalid request", err.Error())
		return false
	}
	return true
}

// bindRange 解析 start / end 查询参数
func bindRange(c *gin.Context) (time.Time, time.Time, bool) {
	var req dto.PunchRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "start and end are required")
		return time.Time{}, time.Time{}, false
	}
	start, err := timeutil.Parse(req.Start)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "Invalid start date", req.Start)
		return time.Time{}, time.Time{}, false
	}
	end, err := timeutil.Parse(req.End)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "Invalid end date", req.End)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
