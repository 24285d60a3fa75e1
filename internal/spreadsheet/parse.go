// Package spreadsheet reads import workbooks and writes templates and report exports.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ErrEmptySheet is returned when the workbook has no header row.
var ErrEmptySheet = errors.New("spreadsheet: no header row")

// table is the first sheet with headers mapped to canonical field names.
type table struct {
	rows []record
}

// record is one data row keyed by canonical field.
type record struct {
	values map[string]string
}

func (r record) get(field string) string { return strings.TrimSpace(r.values[field]) }

// text reads a cell that holds digits, undoing the scientific notation Excel uses for long numbers.
func (r record) text(field string) string {
	v := r.get(field)
	if strings.Contains(strings.ToUpper(v), "E+") {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return v
}

// aliases maps normalized header text to a canonical field.
type aliases map[string]string

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// readTable reads the first sheet of an xlsx workbook, or a CSV file when name ends in .csv.
func readTable(r io.Reader, name string, known aliases) (*table, error) {
	var raw [][]string
	var err error
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		raw, err = readCSV(r)
	} else {
		raw, err = readXLSX(r)
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptySheet
	}

	cols := make(map[int]string, len(raw[0]))
	for i, h := range raw[0] {
		if field, ok := known[normalizeHeader(h)]; ok {
			if !colsHas(cols, field) {
				cols[i] = field
			}
		}
	}

	t := &table{}
	for _, line := range raw[1:] {
		if blank(line) {
			continue
		}
		rec := record{values: make(map[string]string, len(cols))}
		for i, field := range cols {
			if i < len(line) {
				rec.values[field] = line[i]
			}
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func colsHas(cols map[int]string, field string) bool {
	for _, f := range cols {
		if f == field {
			return true
		}
	}
	return false
}

func blank(line []string) bool {
	for _, v := range line {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	// 原始值：日期单元格保留 Excel 序列号
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// parseDate accepts ISO dates, day-first dd/mm/yyyy and Excel serial numbers. Blank is nil.
// Anything else is a domain.InvalidValue for that field.
func parseDate(rec record, field string) (*time.Time, error) {
	v := rec.get(field)
	if v == "" {
		return nil, nil
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil, domain.InvalidValue(field, v)
		}
		t = t.UTC()
		return &t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.InvalidValue(field, v)
}

// parseCount reads a positive integer, defaulting to 1 when blank or not a number.
func parseCount(rec record, field string) int {
	v := rec.get(field)
	if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 1 {
		return int(f)
	}
	return 1
}
