package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/warp/attendance-engine/attendance"
)

// Day-first layouts are tried before month-first ones, so "03/04/2025" is
// 3 April.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02-Jan-2006",
	"2-Jan-2006",
	"02/01/06",
	"01-02-06", // excelize default rendering of date cells
	"2/1/2006",
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04:05 PM",
	"3:04PM",
	"2006-01-02 15:04:05",
}

// ParseDate resolves a date cell. Spreadsheet serial numbers are accepted.
// The zero Date means the value could not be resolved.
func ParseDate(value string) attendance.Date {
	v := strings.TrimSpace(value)
	if isBlank(v) {
		return attendance.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return attendance.DateOf(t)
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return attendance.DateOf(t)
		}
	}
	return attendance.Date{}
}

// ParseClock resolves a time-of-day cell. Spreadsheet day fractions
// (0.375 = 09:00) are accepted. ok is false for blank or unparseable values.
func ParseClock(value string) (attendance.ClockTime, bool) {
	v := strings.TrimSpace(value)
	if isBlank(v) {
		return 0, false
	}
	upper := strings.ToUpper(v)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return attendance.ClockOf(t), true
		}
	}
	if frac, err := strconv.ParseFloat(v, 64); err == nil && frac >= 0 && frac < 1 {
		minutes := int(frac*24*60 + 0.5)
		return attendance.NewClockTime(minutes/60, minutes%60), true
	}
	return 0, false
}

// parseInt reads integer-ish cells ("3", "3.0"); anything else is 0.
func parseInt(value string) int {
	v := strings.TrimSpace(value)
	if isBlank(v) {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func isBlank(v string) bool {
	switch strings.ToLower(v) {
	case "", "-", "--", "na", "n/a", "nan", "null", "none":
		return true
	}
	return false
}
