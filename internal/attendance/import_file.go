package attendance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// column order shared by xlsx and csv uploads
const (
	colEmployeeCode = iota
	colEmployeeName
	colDate
	colStatus
	colCheckIn
	colCheckOut
	colWorkedHours
	colDayType
)

const (
	EncodingUTF8     = "utf8"
	EncodingShiftJIS = "sjis"
)

var ErrUnsupportedFile = errors.New("unsupported file type (use .xlsx or .csv)")

// ParseImportFile turns an uploaded sheet into import rows. A header row is
// skipped when its first cell is not an employee code.
func ParseImportFile(filename string, r io.Reader, encoding string) ([]ImportRow, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		records, err = readXLSX(r)
	case ".csv":
		records, err = readCSV(r, encoding)
	default:
		return nil, ErrUnsupportedFile
	}
	if err != nil {
		return nil, err
	}

	if len(records) > 0 && isHeader(records[0]) {
		records = records[1:]
	}

	rows := make([]ImportRow, 0, len(records))
	for _, rec := range records {
		if blank(rec) {
			continue
		}
		rows = append(rows, recordToRow(rec))
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	var date1904 bool
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	for i, rec := range rows {
		if colDate >= len(rec) || strings.TrimSpace(rec[colDate]) == "" {
			continue
		}
		if d, ok := xlsxDate(f, sheets[0], colDate+1, i+1, rec[colDate], date1904); ok {
			rec[colDate] = d
		}
	}
	return rows, nil
}

// xlsxDate reads a date-formatted cell from its serial value; GetRows only
// yields the display form (4/1/25). Cells shown as stored are left alone.
func xlsxDate(f *excelize.File, sheet string, col, row int, shown string, date1904 bool) (string, bool) {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	raw, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	if err != nil || raw == shown {
		return "", false
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return "", false
	}
	return t.Format(DateLayout), true
}

func readCSV(r io.Reader, encoding string) ([][]string, error) {
	var dec io.Reader
	switch strings.ToLower(encoding) {
	case EncodingShiftJIS, "shift_jis", "cp932":
		dec = transform.NewReader(r, japanese.ShiftJIS.NewDecoder())
	default:
		// drop a UTF-8 BOM written by spreadsheet exports
		dec = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	}
	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	first := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(rec[0]), " ", ""))
	switch first {
	case "employeecode", "code", "empcode", "employeeid":
		return true
	}
	return false
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

func recordToRow(rec []string) ImportRow {
	row := ImportRow{
		EmployeeCode: cell(rec, colEmployeeCode),
		EmployeeName: cell(rec, colEmployeeName),
		Date:         cell(rec, colDate),
		Status:       cell(rec, colStatus),
		CheckIn:      cell(rec, colCheckIn),
		CheckOut:     cell(rec, colCheckOut),
		DayType:      cell(rec, colDayType),
	}
	if v := cell(rec, colWorkedHours); v != "" {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil {
			row.parseErr = fmt.Sprintf("workedHours %q is not a number", v)
		} else {
			row.WorkedHours = &h
		}
	}
	return row
}
