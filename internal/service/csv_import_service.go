package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"timeclock/config"
	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/pkg/metrics"
)

// ── CSV 导入模块业务错误 ──
//
// 所有导入错误按两类区分：输入不合法（400）与文件内容无法解析（500）。

var (
	ErrImportInvalidInput = errors.New("导入文件不合法")
	ErrImportParseFailed  = errors.New("导入文件解析失败")

	ErrImportNoFile               = errors.New("未上传文件")
	ErrImportNotCSV               = errors.New("文件不是 CSV")
	ErrImportFileTooLarge         = errors.New("文件超过大小限制")
	ErrImportTooManyRows          = errors.New("CSV 行数超过限制")
	ErrImportEmptyFile            = errors.New("CSV 文件为空")
	ErrImportMissingPunchInColumn = errors.New("CSV 缺少 PunchIn 列")
)

// ImportError 带用户可读信息的导入错误
type ImportError struct {
	kind    error
	class   error
	Message string
}

func (e *ImportError) Error() string   { return e.Message }
func (e *ImportError) Unwrap() []error { return []error{e.kind, e.class} }

func invalidInput(kind error, msg string) *ImportError {
	return &ImportError{kind: kind, class: ErrImportInvalidInput, Message: msg}
}

func parseFailed(kind error, msg string) *ImportError {
	return &ImportError{kind: kind, class: ErrImportParseFailed, Message: msg}
}

var (
	errCSVEmpty          = parseFailed(ErrImportEmptyFile, "CSV file is empty")
	errCSVMissingPunchIn = parseFailed(ErrImportMissingPunchInColumn, "CSV must contain a 'PunchIn' column")
)

// 导入行的业务规则提示
const msgOneOpenPunch = "Only one open punch (empty PunchOut) is allowed per owner"

// TemplateFileName 模板下载文件名
const TemplateFileName = "punch_import_template.csv"

const csvTemplate = "PunchIn,PunchOut,HourType,WorkDescription\n" +
	"2024-01-01 09:00:00,2024-01-01 17:00:00,Regular,Working on project X\n" +
	"2024-01-02 09:00:00,2024-01-02 18:00:00,TechLead,Code review and mentoring\n"

// CSVUpload 上传的文件
type CSVUpload struct {
	FileName string
	Size     int64
	Body     io.Reader
}

// CsvImportService CSV 导入业务接口
type CsvImportService interface {
	ImportCSV(ctx context.Context, upload *CSVUpload, authID string) (*dto.CsvImportResult, error)
	Template() []byte
}

type csvImportService struct {
	punches PunchService
	cfg     *config.ImportConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewCsvImportService 创建 CsvImportService 实例
func NewCsvImportService(punches PunchService, cfg *config.ImportConfig, logger *zap.Logger) CsvImportService {
	return &csvImportService{
		punches: punches,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// ImportCSV: 校验文件 → 解析 → 逐行转换 → 一次批量写入
// ═══════════════════════════════════════════════════════════
//
// 文件级错误直接返回，不写入任何数据；行级错误记入结果，其余行照常导入。
// 所有行的归属一律为当前用户。

func (s *csvImportService) ImportCSV(ctx context.Context, upload *CSVUpload, authID string) (*dto.CsvImportResult, error) {
	// 1. 文件校验
	body, err := s.readUpload(upload)
	if err != nil {
		s.reject(err)
		return nil, err
	}

	// 2. 解析
	rows, err := readCSV(bytes.NewReader(body))
	if err != nil {
		var ie *ImportError
		if !errors.As(err, &ie) {
			err = parseFailed(ErrImportParseFailed, err.Error())
		}
		s.reject(err)
		return nil, err
	}
	if len(rows) > s.cfg.MaxRows {
		err := invalidInput(ErrImportTooManyRows,
			fmt.Sprintf("CSV contains %d records, which exceeds the maximum of %d", len(rows), s.cfg.MaxRows))
		s.reject(err)
		return nil, err
	}

	// 3. 逐行转换
	openTaken, err := s.punches.HasOpenPunch(ctx, authID)
	if err != nil {
		return nil, err
	}

	result := &dto.CsvImportResult{Errors: make([]string, 0)}
	valid := make([]model.Punch, 0, len(rows))
	now := s.now()

	for _, row := range rows {
		punch, reason := convertRow(&row.Record, authID, now)
		if reason == "" && punch.IsOpen() {
			if openTaken {
				reason = msgOneOpenPunch
			}
			openTaken = true
		}
		if reason != "" {
			s.addFailure(result, row.Line, reason)
			continue
		}
		valid = append(valid, *punch)
	}

	if hidden := result.FailureCount - len(result.Errors); hidden > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("... and %d more errors", hidden))
	}

	// 4. 批量写入
	if len(valid) > 0 {
		inserted, err := s.punches.BulkInsertPunches(ctx, valid, authID)
		if err != nil {
			return nil, err
		}
		result.SuccessCount = inserted
		if skipped := len(valid) - inserted; skipped > 0 {
			result.FailureCount += skipped
			result.Errors = append(result.Errors, fmt.Sprintf("%d rows skipped: %s", skipped, msgOneOpenPunch))
		}
	}

	metrics.ImportRows.WithLabelValues("success").Add(float64(result.SuccessCount))
	metrics.ImportRows.WithLabelValues("failure").Add(float64(result.FailureCount))
	s.logger.Info("CSV 导入完成",
		zap.String("auth_id", authID),
		zap.String("file", upload.FileName),
		zap.Int("rows", len(rows)),
		zap.Int("success", result.SuccessCount),
		zap.Int("failure", result.FailureCount),
	)
	return result, nil
}

// Template 导入模板（表头 + 两行示例）
func (s *csvImportService) Template() []byte {
	return ImportTemplate()
}

// ImportTemplate 不依赖服务实例的模板内容（命令行工具使用）
func ImportTemplate() []byte {
	return []byte(csvTemplate)
}

// ── 辅助函数 ──

func (s *csvImportService) readUpload(upload *CSVUpload) ([]byte, error) {
	if upload == nil || upload.Body == nil || upload.Size == 0 {
		return nil, invalidInput(ErrImportNoFile, "No file uploaded")
	}
	if !strings.EqualFold(filepath.Ext(upload.FileName), ".csv") {
		return nil, invalidInput(ErrImportNotCSV, "File must be a CSV file")
	}

	tooLarge := invalidInput(ErrImportFileTooLarge,
		fmt.Sprintf("File size exceeds maximum allowed size of %d MB", s.cfg.MaxFileSize/(1024*1024)))
	if upload.Size > s.cfg.MaxFileSize {
		return nil, tooLarge
	}

	// 声明的大小不可信，读取时再限制一次
	body, err := io.ReadAll(io.LimitReader(upload.Body, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, parseFailed(ErrImportParseFailed, err.Error())
	}
	if int64(len(body)) > s.cfg.MaxFileSize {
		return nil, tooLarge
	}
	if len(body) == 0 {
		return nil, invalidInput(ErrImportNoFile, "No file uploaded")
	}
	return body, nil
}

func (s *csvImportService) addFailure(result *dto.CsvImportResult, line int, reason string) {
	result.FailureCount++
	if len(result.Errors) < s.cfg.MaxErrors {
		result.Errors = append(result.Errors, fmt.Sprintf("Line %d: %s", line, reason))
	}
}

func (s *csvImportService) reject(err error) {
	reason := "parse"
	switch {
	case errors.Is(err, ErrImportNoFile):
		reason = "no_file"
	case errors.Is(err, ErrImportNotCSV):
		reason = "not_csv"
	case errors.Is(err, ErrImportFileTooLarge):
		reason = "too_large"
	case errors.Is(err, ErrImportTooManyRows):
		reason = "too_many_rows"
	}
	metrics.ImportRejected.WithLabelValues(reason).Inc()
	s.logger.Warn("CSV 导入被拒绝", zap.String("reason", reason), zap.Error(err))
}

// convertRow 单行转换；意外 panic 记为该行失败，不影响其他行
func convertRow(record *dto.CsvPunchRecord, authID string, now time.Time) (punch *model.Punch, reason string) {
	defer func() {
		if r := recover(); r != nil {
			punch, reason = nil, fmt.Sprintf("Unexpected error: %v", r)
		}
	}()
	return record.ToPunch(authID, now)
}
