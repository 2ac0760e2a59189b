package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"timeclock/internal/api/middleware"
	"timeclock/internal/dto"
	"timeclock/internal/service"
	"timeclock/pkg/response"
)

// uploadField 表单中文件字段名
const uploadField = "file"

// CsvUploadHandler CSV 导入 HTTP 处理器
//
// 失败时仍返回 CsvImportResult 结构，错误信息放在 Errors 中。
type CsvUploadHandler struct {
	importSvc   service.CsvImportService
	maxFileSize int64
}

// NewCsvUploadHandler 创建 CsvUploadHandler
func NewCsvUploadHandler(importSvc service.CsvImportService, maxFileSize int64) *CsvUploadHandler {
	return &CsvUploadHandler{importSvc: importSvc, maxFileSize: maxFileSize}
}

// Upload 上传并导入 CSV
// POST /api/csvupload/upload  (multipart/form-data, field=file)
func (h *CsvUploadHandler) Upload(c *gin.Context) {
	authID, ok := MustGetAuthID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			importFailed(c, http.StatusBadRequest,
				fmt.Sprintf("File size exceeds maximum allowed size of %d MB", h.maxFileSize/(1024*1024)))
			return
		}
		importFailed(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	result, err := h.importSvc.ImportCSV(c.Request.Context(), &service.CSVUpload{
		FileName: header.Filename,
		Size:     header.Size,
		Body:     file,
	}, authID)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.OK(c, result)
}

// Template 下载导入模板
// GET /api/csvupload/template
func (h *CsvUploadHandler) Template(c *gin.Context) {
	response.Attachment(c, service.TemplateFileName, "text/csv", h.importSvc.Template())
}

func (h *CsvUploadHandler) handleImportError(c *gin.Context, err error) {
	var ie *service.ImportError
	switch {
	case errors.As(err, &ie) && errors.Is(err, service.ErrImportInvalidInput):
		importFailed(c, http.StatusBadRequest, ie.Message)
	case errors.As(err, &ie):
		importFailed(c, http.StatusInternalServerError, "Server error: "+ie.Message)
	default:
		_ = c.Error(err)
		importFailed(c, http.StatusInternalServerError, "Server error: "+err.Error())
	}
}

func importFailed(c *gin.Context, status int, msg string) {
	c.JSON(status, dto.CsvImportResult{Errors: []string{msg}})
}
