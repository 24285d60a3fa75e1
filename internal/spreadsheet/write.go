package spreadsheet

import (
	"bytes"
	"fmt"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/service"

	"github.com/xuri/excelize/v2"
)

// sheetSpec describes one single-sheet workbook.
type sheetSpec struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// ResidentImportTemplate 住户导入模板
func ResidentImportTemplate() ([]byte, error) {
	return writeWorkbook(sheetSpec{
		name:    "الساكنين",
		headers: []string{"الاسم", "الرقم القومي", "الهاتف", "تاريخ التسكين", "كود الوحدة", "الشيفت", "تاريخ الرفد"},
		widths:  []float64{25, 20, 15, 15, 15, 12, 15},
		rows: [][]any{
			{"أحمد محمد", "29901011234567", "01012345678", "2025-01-15", "A-1011", "صباحي", ""},
		},
	})
}

// EvictionTemplate 批量退房模板
func EvictionTemplate() ([]byte, error) {
	return writeWorkbook(sheetSpec{
		name:    "إخلاء",
		headers: []string{"الاسم", "الرقم القومي", "كود الوحدة", "تاريخ الإخلاء", "السبب"},
		widths:  []float64{25, 20, 15, 15, 25},
		rows: [][]any{
			{"أحمد محمد", "29901011234567", "A-1011", "2026-02-08", "انتهاء العقد"},
			{"Ivan Petrov", "AB1234567", "C-01", "2026-02-08", "نقل مشروع"},
		},
	})
}

// UnitImportTemplate 单元导入模板
func UnitImportTemplate() ([]byte, error) {
	return writeWorkbook(sheetSpec{
		name:    "الوحدات",
		headers: []string{"الكود", "الاسم", "النوع", "الطابق", "الغرف", "الأسرة", "ملاحظات"},
		widths:  []float64{15, 20, 10, 10, 8, 8, 20},
		rows: [][]any{
			{"S300-1", "شقة S300-1", "شقة", "1", 2, 4, ""},
			{"S300-2", "شقة S300-2", "شقة", "1", 2, 4, ""},
			{"C-01", "شاليه C-01", "شاليه", "أرضي", 3, 6, ""},
		},
	})
}

// OccupancyStatsExport writes the per-unit occupancy view.
func OccupancyStatsExport(stats []service.OccupancyStatsRow) ([]byte, error) {
	rows := make([][]any, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []any{s.UnitCode, s.BuildingName, s.TotalBeds, s.OccupiedBeds, s.VacantBeds, string(s.Status)})
	}
	return writeWorkbook(sheetSpec{
		name:    "الإشغال",
		headers: []string{"كود الوحدة", "المبنى", "إجمالي الأسرة", "الأسرة المشغولة", "الأسرة الشاغرة", "الحالة"},
		widths:  []float64{15, 20, 14, 16, 14, 12},
		rows:    rows,
	})
}

// ResidentHistoryExport writes the flattened resident history.
func ResidentHistoryExport(history []service.ResidentHistoryRow) ([]byte, error) {
	rows := make([][]any, 0, len(history))
	for _, h := range history {
		out := ""
		if h.CheckOutDate != nil {
			out = h.CheckOutDate.Format(time.DateOnly)
		}
		rows = append(rows, []any{h.Name, h.IDNumber, h.Phone, h.UnitCode, h.CheckInDate.Format(time.DateOnly), out, string(h.Type)})
	}
	return writeWorkbook(sheetSpec{
		name:    "سجل الساكنين",
		headers: []string{"الاسم", "رقم الهوية", "الهاتف", "كود الوحدة", "تاريخ التسكين", "تاريخ الخروج", "النوع"},
		widths:  []float64{25, 20, 15, 15, 15, 15, 12},
		rows:    rows,
	})
}

func writeWorkbook(spec sheetSpec) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(spec.name)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.SetSheetView(spec.name, -1, &excelize.ViewOptions{RightToLeft: boolPtr(true)}); err != nil {
		return nil, fmt.Errorf("failed to set sheet view: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 表头
	for col, header := range spec.headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(spec.name, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(spec.name, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		if col < len(spec.widths) {
			name, _ := excelize.ColumnNumberToName(col + 1)
			if err := f.SetColWidth(spec.name, name, name, spec.widths[col]); err != nil {
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	// 数据从第 2 行开始
	for i, row := range spec.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		values := row
		if err := f.SetSheetRow(spec.name, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func boolPtr(b bool) *bool { return &b }
