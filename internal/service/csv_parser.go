package service

import (
	"bufio"
	"io"
	"strings"

	"timeclock/internal/dto"
)

// CSV 列名（表头大小写不敏感）
const (
	csvColPunchIn         = "punchin"
	csvColPunchOut        = "punchout"
	csvColHourType        = "hourtype"
	csvColWorkDescription = "workdescription"
)

// csvRow 一条数据行及其在文件中的行号（表头为第 1 行）
type csvRow struct {
	Line   int
	Record dto.CsvPunchRecord
}

// csvHeader 列名 → 下标；缺失的列为 -1
type csvHeader struct {
	punchIn, punchOut, hourType, workDescription int
}

// parseCSVLine 按简化方言拆分一行：
// 双引号切换引用状态（不支持转义引号），引用外的逗号分隔字段，字段去除首尾空白。
func parseCSVLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

func parseCSVHeader(line string) csvHeader {
	h := csvHeader{punchIn: -1, punchOut: -1, hourType: -1, workDescription: -1}
	for i, name := range strings.Split(line, ",") {
		name = strings.ToLower(strings.Trim(strings.TrimSpace(name), `"`))
		switch name {
		case csvColPunchIn:
			h.punchIn = i
		case csvColPunchOut:
			h.punchOut = i
		case csvColHourType:
			h.hourType = i
		case csvColWorkDescription:
			h.workDescription = i
		}
	}
	return h
}

// cell 取字段值；列缺失、越界或空白都视为未提供
func cell(fields []string, idx int) *string {
	if idx < 0 || idx >= len(fields) || fields[idx] == "" {
		return nil
	}
	v := fields[idx]
	return &v
}

// readCSV 读取整个文件，返回数据行
//
// 第一行必须是表头；数据区的空行跳过且不占用行号，首个数据行为第 2 行。
func readCSV(r io.Reader) ([]csvRow, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	// 首行即表头，首行为空视为空文件
	if len(lines) == 0 || strings.TrimSpace(strings.TrimPrefix(lines[0], "\ufeff")) == "" {
		return nil, errCSVEmpty
	}

	header := parseCSVHeader(strings.TrimPrefix(lines[0], "\ufeff"))
	if header.punchIn < 0 {
		return nil, errCSVMissingPunchIn
	}

	rows := make([]csvRow, 0, len(lines)-1)
	lineNumber := 2
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		fields := parseCSVLine(l)
		rows = append(rows, csvRow{
			Line: lineNumber,
			Record: dto.CsvPunchRecord{
				PunchIn:         cell(fields, header.punchIn),
				PunchOut:        cell(fields, header.punchOut),
				HourType:        cell(fields, header.hourType),
				WorkDescription: cell(fields, header.workDescription),
			},
		})
		lineNumber++
	}
	return rows, nil
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
