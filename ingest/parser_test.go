package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/warp/attendance-engine/attendance"
)

const deviceCSV = `Monthly Attendance Report,,,,,
Branch: Head Office,,,,,
,,,,,
Date,Emp Code,Employee Name,Clock In,Clock Out,Total
06/01/2025,E001,Asha Rao,09:44,14:02,04:18
06/01/2025,E002,Ben Ito,9:00 AM,6:00 PM,09:00
2025-01-07,E001,Asha Rao,09:00:00,18:00:00,
not-a-date,E003,Cara,09:00,17:00,
07/01/2025,,Nobody,09:00,17:00,
07/01/2025,E002,Ben Ito,??,17:00,
`

func TestParseCSV_HeaderDetectionAndAliases(t *testing.T) {
	res, err := NewParser().ParseFile("export.csv", strings.NewReader(deviceCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, res.HeaderRow)
	require.Len(t, res.Rows, 6)

	first := res.Rows[0]
	assert.Equal(t, "E001", first.EmployeeCode)
	assert.Equal(t, "Asha Rao", first.EmployeeName)
	assert.Equal(t, attendance.NewDate(2025, time.January, 6), first.Date)
	require.NotNil(t, first.InTime)
	assert.Equal(t, "09:44", first.InTime.String())
	assert.Equal(t, "14:02", first.OutTime.String())
	require.NotNil(t, first.DeviceTotal)
	assert.Equal(t, 5, first.Line)

	ben := res.Rows[1]
	assert.Equal(t, "09:00", ben.InTime.String())
	assert.Equal(t, "18:00", ben.OutTime.String())

	assert.Equal(t, attendance.NewDate(2025, time.January, 7), res.Rows[2].Date)

	// Bad rows are kept for the aggregator to reject.
	assert.True(t, res.Rows[3].Date.IsZero())
	assert.Equal(t, "", res.Rows[4].EmployeeCode)

	assert.Nil(t, res.Rows[5].InTime)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "row 10")
}

func TestParseCSV_RowsFlowIntoAggregator(t *testing.T) {
	res, err := NewParser().ParseCSV([]byte(deviceCSV))
	require.NoError(t, err)

	batch := attendance.AggregateDaily(res.Rows, attendance.DefaultPolicy())
	assert.Equal(t, 2, len(batch.Rejected))
	assert.Equal(t, 4, batch.Accepted)
	require.NotEmpty(t, batch.Records)
	assert.Equal(t, 258, batch.Records[0].TotalMinutes)
}

func TestParseCSV_Latin1Fallback(t *testing.T) {
	// "José" encoded as Latin-1 is not valid UTF-8.
	data := []byte("code,name,date,in,out\nE9,Jos\xe9,2025-01-06,09:00,17:00\n")
	res, err := NewParser().ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "José", res.Rows[0].EmployeeName)
}

func TestParseCSV_NumericCodeFromSpreadsheet(t *testing.T) {
	res, err := NewParser().ParseCSV([]byte("ID,DATE,IN,OUT\n1042.0,06-Jan-2025,08:30,17:15\n"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "1042", res.Rows[0].EmployeeCode)
	assert.Equal(t, attendance.NewDate(2025, time.January, 6), res.Rows[0].Date)
}

func TestParseXLSX_FirstSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Attendance"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Code", "Name", "Date", "In", "Out"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"E001", "Asha", "2025-01-06", "09:00", "18:00"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := NewParser().ParseFile("punches.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, res.HeaderRow)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "E001", res.Rows[0].EmployeeCode)
	assert.Equal(t, "18:00", res.Rows[0].OutTime.String())
}

func TestParseXLS_LegacyWorkbook(t *testing.T) {
	// GIVEN: A BIFF8 export with a title row above the header
	data, err := os.ReadFile(filepath.Join("testdata", "punches.xls"))
	require.NoError(t, err)

	// WHEN: Parsed through the extension dispatch
	res, err := NewParser().ParseFile("punches.xls", bytes.NewReader(data))
	require.NoError(t, err)

	// THEN: The header is found and both punch rows are typed
	assert.Equal(t, 3, res.HeaderRow)
	require.Len(t, res.Rows, 2)

	first := res.Rows[0]
	assert.Equal(t, "E001", first.EmployeeCode)
	assert.Equal(t, "Asha Rao", first.EmployeeName)
	assert.Equal(t, attendance.NewDate(2025, time.January, 6), first.Date)
	assert.Equal(t, "09:00", first.InTime.String())
	assert.Equal(t, "18:00", first.OutTime.String())
	assert.Equal(t, 4, first.Line)

	assert.Equal(t, attendance.NewDate(2025, time.January, 7), res.Rows[1].Date)
	assert.Equal(t, "14:02", res.Rows[1].OutTime.String())
}

func TestParseXLS_NotAWorkbook(t *testing.T) {
	_, err := NewParser().ParseXLS([]byte("Date,Code\n"))
	assert.Error(t, err)
}

func TestParseFile_Errors(t *testing.T) {
	_, err := NewParser().ParseFile("notes.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewParser().ParseCSV([]byte("foo,bar\n1,2\n"))
	assert.ErrorIs(t, err, ErrHeaderNotFound)

	_, err = NewParser().ParseCSV([]byte(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseDate_Formats(t *testing.T) {
	want := attendance.NewDate(2025, time.December, 1)
	for _, v := range []string{"01/12/2025", "2025-12-01", "01-12-2025", "2025-12-01 00:00:00", "01-Dec-2025", "01/12/25"} {
		assert.Equal(t, want, ParseDate(v), v)
	}
	// Month-first only when day-first is impossible.
	assert.Equal(t, attendance.NewDate(2025, time.December, 31), ParseDate("12/31/2025"))
	// Spreadsheet serial.
	assert.Equal(t, attendance.NewDate(2025, time.January, 6), ParseDate("45663"))
	assert.True(t, ParseDate("nan").IsZero())
}

func TestParseClock_Formats(t *testing.T) {
	tests := map[string]string{
		"09:05":    "09:05",
		"9:05":     "09:05",
		"21:30:59": "21:30",
		"9:30 pm":  "21:30",
		"12:15 AM": "00:15",
		"0.375":    "09:00",
	}
	for in, want := range tests {
		c, ok := ParseClock(in)
		require.True(t, ok, in)
		assert.Equal(t, want, c.String(), in)
	}
	_, ok := ParseClock("")
	assert.False(t, ok)
	_, ok = ParseClock("late")
	assert.False(t, ok)
}
