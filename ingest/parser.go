/*
Package ingest turns clock-device exports into attendance.PunchRow values.

PURPOSE:
  Biometric devices export CSV or Excel sheets with a handful of title rows,
  inconsistent header spellings and locale-dependent dates. The parser
  finds the header row, maps aliased headers onto canonical columns and
  converts every data row into a typed PunchRow.

  The parser never drops a data row. A row with an unresolvable date or a
  missing employee code is still returned (zero Date / empty code) so that
  attendance.AggregateDaily can reject and count it with its source line.

SUPPORTED INPUT:
  .csv   UTF-8, falling back to Windows-1252 / Latin-1
  .xlsx  first worksheet (excelize)
  .xls   first worksheet (extrame/xls)

SEE ALSO:
  - columns.go: header aliases and header-row detection
  - formats.go: date and time layouts
  - attendance/daily.go: row validation and grouping
*/
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/warp/attendance-engine/attendance"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than csv/xlsx/xls.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrHeaderNotFound is returned when no row names both a date and a code column.
	ErrHeaderNotFound = errors.New("header row with date and code columns not found")

	// ErrEmptyFile is returned when a file has no rows at all.
	ErrEmptyFile = errors.New("file is empty")
)

// DefaultHeaderScan is how many leading rows are searched for the header.
const DefaultHeaderScan = 10

// maxXLSRows bounds legacy workbook reads.
const maxXLSRows = 200000

// Result is the outcome of parsing one file.
type Result struct {
	Rows      []attendance.PunchRow
	Warnings  []string
	HeaderRow int // 1-based
}

// Parser converts spreadsheet exports into punch rows.
type Parser struct {
	HeaderScan int
}

// NewParser creates a parser with default settings.
func NewParser() *Parser {
	return &Parser{HeaderScan: DefaultHeaderScan}
}

// SupportedFile reports whether the file extension can be parsed.
func SupportedFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}

// ParseFile dispatches on the file extension.
func (p *Parser) ParseFile(filename string, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return p.ParseCSV(data)
	case ".xlsx":
		return p.ParseXLSX(data)
	case ".xls":
		return p.ParseXLS(data)
	}
	return nil, fmt.Errorf("%w: %s (use .csv, .xlsx or .xls)", ErrUnsupportedFormat, filepath.Ext(filename))
}

// ParseCSV parses CSV bytes.
func (p *Parser) ParseCSV(data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode csv: %w", err)
		}
		data = decoded
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return p.ParseTable(rows)
}

// ParseXLSX parses the first worksheet of an .xlsx workbook.
func (p *Parser) ParseXLSX(data []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return p.ParseTable(rows)
}

// ParseXLS parses the first worksheet of a legacy .xls workbook.
func (p *Parser) ParseXLS(data []byte) (*Result, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, ErrEmptyFile
	}
	return p.ParseTable(wb.ReadAllCells(maxXLSRows))
}

// ParseTable converts raw cell rows (header somewhere in the first rows)
// into punch rows.
func (p *Parser) ParseTable(rows [][]string) (*Result, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	scan := p.HeaderScan
	if scan <= 0 {
		scan = DefaultHeaderScan
	}
	headerIdx, cols, ok := findHeader(rows, scan)
	if !ok {
		return nil, ErrHeaderNotFound
	}

	res := &Result{HeaderRow: headerIdx + 1}
	for i := headerIdx + 1; i < len(rows); i++ {
		raw := rows[i]
		if blankRow(raw) {
			continue
		}
		line := i + 1

		pr := attendance.PunchRow{
			EmployeeCode:    normalizeCode(cols.get(raw, ColCode)),
			EmployeeName:    cleanText(cols.get(raw, ColName)),
			Date:            ParseDate(cols.get(raw, ColDate)),
			Shift:           cleanText(cols.get(raw, ColShift)),
			LateMinutes:     parseInt(cols.get(raw, ColLate)),
			OvertimeMinutes: parseInt(cols.get(raw, ColOT)),
			Remark:          cleanText(cols.get(raw, ColRemark)),
			Line:            line,
		}
		pr.InTime = p.clockField(res, line, "in", cols.get(raw, ColIn))
		pr.OutTime = p.clockField(res, line, "out", cols.get(raw, ColOut))
		if c, ok := ParseClock(cols.get(raw, ColTotal)); ok {
			pr.DeviceTotal = &c
		}

		res.Rows = append(res.Rows, pr)
	}
	return res, nil
}

func (p *Parser) clockField(res *Result, line int, name, value string) *attendance.ClockTime {
	c, ok := ParseClock(value)
	if ok {
		return &c
	}
	if !isBlank(strings.TrimSpace(value)) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: unreadable %s time %q", line, name, value))
	}
	return nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// normalizeCode drops the ".0" spreadsheets append to numeric codes.
func normalizeCode(code string) string {
	code = cleanText(code)
	if strings.HasSuffix(code, ".0") && strings.Trim(code[:len(code)-2], "0123456789") == "" {
		code = code[:len(code)-2]
	}
	return code
}

func cleanText(v string) string {
	v = strings.TrimSpace(v)
	if isBlank(v) {
		return ""
	}
	return v
}
