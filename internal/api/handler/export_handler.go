package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timeclock/internal/dto"
	"timeclock/internal/service"
	"timeclock/pkg/response"
	"timeclock/pkg/timeutil"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportPunches 导出时间范围内的打卡
// GET /api/export/punches?start=&end=&format=xlsx|ics
func (h *ExportHandler) ExportPunches(c *gin.Context) {
	authID, ok := MustGetAuthID(c)
	if !ok {
		return
	}

	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "Invalid export request", err.Error())
		return
	}
	start, err := timeutil.Parse(req.Start)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "Invalid start date", req.Start)
		return
	}
	end, err := timeutil.Parse(req.End)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "Invalid end date", req.End)
		return
	}

	file, err := h.exportSvc.ExportPunches(c.Request.Context(), start, end, authID, req.Format)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	response.Attachment(c, file.FileName, file.ContentType, file.Body.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoPunches):
		response.NotFound(c, 40001, "No completed punches in the selected range")
	case errors.Is(err, service.ErrExportUnsupportedFormat):
		response.BadRequest(c, 40002, "Unsupported export format")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
