package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/pkg/timeutil"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoPunches         = errors.New("所选日期范围内没有已结束的打卡")
	ErrExportGenerateFail      = errors.New("生成导出文件失败")
	ErrExportUnsupportedFormat = errors.New("不支持的导出格式")
)

// 导出格式
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatICS  = "ics"
)

// ExportFile 导出结果，由 Handler 层设置响应头后写出
type ExportFile struct {
	Body        *bytes.Buffer
	FileName    string
	ContentType string
}

// ExportService 导出业务接口
//
// 数据来源与 GetPunchRecords 相同（已结束的打卡，按日期范围）。
//   - xlsx：明细 + 按工时类别汇总
//   - ics：每条打卡一个 VEVENT，可导入日历
type ExportService interface {
	ExportPunches(ctx context.Context, start, end time.Time, authID, format string) (*ExportFile, error)
}

type exportService struct {
	punches PunchService
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(punches PunchService, logger *zap.Logger) ExportService {
	return &exportService{punches: punches, logger: logger, now: time.Now}
}

func (s *exportService) ExportPunches(ctx context.Context, start, end time.Time, authID, format string) (*ExportFile, error) {
	if format == "" {
		format = ExportFormatXLSX
	}
	if format != ExportFormatXLSX && format != ExportFormatICS {
		return nil, ErrExportUnsupportedFormat
	}

	records, err := s.punches.GetPunchRecords(ctx, start, end, authID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrExportNoPunches
	}

	period := fmt.Sprintf("%s_%s",
		timeutil.StartOfDay(start).Format(time.DateOnly),
		timeutil.StartOfDay(end).Format(time.DateOnly))

	if format == ExportFormatICS {
		return &ExportFile{
			Body:        s.buildCalendar(records),
			FileName:    fmt.Sprintf("timesheet_%s.ics", period),
			ContentType: "text/calendar; charset=utf-8",
		}, nil
	}

	buf, err := s.buildWorkbook(records, period)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("auth_id", authID), zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return &ExportFile{
		Body:        buf,
		FileName:    fmt.Sprintf("timesheet_%s.xlsx", period),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}, nil
}

// ═══════════════════════════════════════════════════════════
// Excel
// ═══════════════════════════════════════════════════════════
//
//   - 第 1 行：标题
//   - 第 2 行：表头 Date | Punch In | Punch Out | Hour Type | Duration | Description
//   - 数据行按 PunchIn 升序
//   - 末尾空一行后为各类别合计与总计

const timesheetSheet = "Timesheet"

func (s *exportService) buildWorkbook(records []dto.PunchRecord, period string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(timesheetSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	f.SetColWidth(timesheetSheet, "A", "A", 12)
	f.SetColWidth(timesheetSheet, "B", "C", 20)
	f.SetColWidth(timesheetSheet, "D", "E", 12)
	f.SetColWidth(timesheetSheet, "F", "F", 48)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(timesheetSheet, "A1", "Timesheet "+period)
	f.MergeCell(timesheetSheet, "A1", "F1")
	f.SetCellStyle(timesheetSheet, "A1", "A1", headerStyle)

	headers := []string{"Date", "Punch In", "Punch Out", "Hour Type", "Duration", "Description"}
	for i, h := range headers {
		f.SetCellValue(timesheetSheet, cellRef(i, 2), h)
	}
	f.SetCellStyle(timesheetSheet, "A2", "F2", headerStyle)

	row := 3
	for _, r := range records {
		desc := ""
		if r.WorkDescription != nil {
			desc = *r.WorkDescription
		}
		f.SetCellValue(timesheetSheet, cellRef(0, row), r.PunchIn.Format(time.DateOnly))
		f.SetCellValue(timesheetSheet, cellRef(1, row), r.PunchIn.Format(time.DateTime))
		f.SetCellValue(timesheetSheet, cellRef(2, row), r.PunchOut.Format(time.DateTime))
		f.SetCellValue(timesheetSheet, cellRef(3, row), string(r.HourType))
		f.SetCellValue(timesheetSheet, cellRef(4, row), FormatHHMM(int64(r.PunchOut.Sub(r.PunchIn)/time.Minute)))
		f.SetCellValue(timesheetSheet, cellRef(5, row), desc)
		row++
	}

	summary := SummarizePunches(records)
	row++
	for _, ht := range model.HourTypes {
		f.SetCellValue(timesheetSheet, cellRef(3, row), string(ht))
		f.SetCellValue(timesheetSheet, cellRef(4, row), summary.Totals[string(ht)])
		row++
	}
	f.SetCellValue(timesheetSheet, cellRef(3, row), "Total")
	f.SetCellValue(timesheetSheet, cellRef(4, row), summary.Combined)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// cellRef 0 起始列号 + 1 起始行号 → "A1"
func cellRef(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

// ═══════════════════════════════════════════════════════════
// iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) buildCalendar(records []dto.PunchRecord) *bytes.Buffer {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//timeclock//timesheet export//EN")

	stamp := s.now()
	for _, r := range records {
		evt := cal.AddEvent(r.PunchID + "@timeclock")
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(r.PunchIn)
		evt.SetEndAt(*r.PunchOut)
		evt.SetSummary(string(r.HourType) + " shift")
		if r.WorkDescription != nil && *r.WorkDescription != "" {
			evt.SetDescription(*r.WorkDescription)
		}
	}

	return bytes.NewBufferString(cal.Serialize())
}
