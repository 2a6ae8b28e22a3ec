package ingest

import "strings"

// Column is a canonical input column.
type Column string

const (
	ColDate   Column = "date"
	ColCode   Column = "code"
	ColName   Column = "name"
	ColIn     Column = "in_time"
	ColOut    Column = "out_time"
	ColTotal  Column = "total"
	ColShift  Column = "shift"
	ColLate   Column = "late"
	ColOT     Column = "ot"
	ColRemark Column = "remark"
)

// aliases lists accepted header spellings per column, compared after
// lower-casing and trimming.
var aliases = map[Column][]string{
	ColDate:   {"date", "attendance date", "attendance_date", "punch date"},
	ColCode:   {"code", "employee code", "employee_code", "emp code", "emp_code", "id", "emp id", "employee id"},
	ColName:   {"name", "employee name", "employee_name", "emp name", "emp_name"},
	ColIn:     {"in", "in time", "in_time", "clock in", "clock_in", "punch in", "punch_in"},
	ColOut:    {"out", "out time", "out_time", "clock out", "clock_out", "punch out", "punch_out"},
	ColTotal:  {"total", "total time", "total_time", "hours"},
	ColShift:  {"shift"},
	ColLate:   {"late"},
	ColOT:     {"ot", "overtime"},
	ColRemark: {"remark", "remarks", "status"},
}

var aliasIndex = func() map[string]Column {
	idx := make(map[string]Column)
	for col, names := range aliases {
		for _, n := range names {
			idx[n] = col
		}
	}
	return idx
}()

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// columnMap maps canonical columns to their position in a header row. The
// first matching header wins.
type columnMap map[Column]int

func mapColumns(header []string) columnMap {
	cm := make(columnMap)
	for i, h := range header {
		col, ok := aliasIndex[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := cm[col]; !seen {
			cm[col] = i
		}
	}
	return cm
}

func (cm columnMap) has(cols ...Column) bool {
	for _, c := range cols {
		if _, ok := cm[c]; !ok {
			return false
		}
	}
	return true
}

func (cm columnMap) get(row []string, col Column) string {
	i, ok := cm[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// findHeader returns the index of the first row within scan rows that names
// both a date and a code column.
func findHeader(rows [][]string, scan int) (int, columnMap, bool) {
	for i := 0; i < len(rows) && i < scan; i++ {
		cm := mapColumns(rows[i])
		if cm.has(ColDate, ColCode) {
			return i, cm, true
		}
	}
	return 0, nil, false
}
