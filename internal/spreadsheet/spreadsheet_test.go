package spreadsheet

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseResidentImport_ArabicHeaders(t *testing.T) {
	r := buildWorkbook(t, [][]any{
		{"الاسم", "الرقم القومي", "الهاتف", "تاريخ التسكين", "كود الوحدة", "الشيفت", "تاريخ الرفد"},
		{"أحمد محمد", "29901011234567", "01012345678", "2025-01-15", "A-1011", "صباحي", ""},
		{"", "", "", "", "", "", ""},
		{"محمود علي", "29901011234568", "", "20/02/2025", "A-1012", "", "2025-03-01"},
	})

	rows, err := ParseResidentImport(r, "residents.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "أحمد محمد", rows[0].Name)
	assert.Equal(t, "29901011234567", rows[0].NationalID)
	assert.Equal(t, "A-1011", rows[0].UnitCode)
	assert.Equal(t, "صباحي", rows[0].Shift)
	require.NotNil(t, rows[0].CheckInDate)
	assert.Equal(t, date(2025, 1, 15), *rows[0].CheckInDate)
	assert.Nil(t, rows[0].CheckOutDate)

	require.NotNil(t, rows[1].CheckInDate)
	assert.Equal(t, date(2025, 2, 20), *rows[1].CheckInDate)
	require.NotNil(t, rows[1].CheckOutDate)
	assert.Equal(t, date(2025, 3, 1), *rows[1].CheckOutDate)
}

func TestParseResidentImport_EnglishHeadersAndSerialDates(t *testing.T) {
	r := buildWorkbook(t, [][]any{
		{"Name", "National ID", "Unit Code", "Check In", "Gender"},
		{"Ivan Petrov", "AB1234567", "C-01", 45672, "female"},
	})

	rows, err := ParseResidentImport(r, "residents.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AB1234567", rows[0].NationalID)
	assert.Equal(t, domain.GenderFemale, rows[0].Gender)
	require.NotNil(t, rows[0].CheckInDate)
	assert.Equal(t, date(2025, 1, 15), *rows[0].CheckInDate)
}

func TestParseResidentImport_InvalidDateFailsOnlyThatRow(t *testing.T) {
	r := buildWorkbook(t, [][]any{
		{"name", "unitCode", "checkInDate"},
		{"Ahmed", "A-1", "yesterday"},
		{},
		{"Omar", "A-1", "2025-01-15"},
	})

	rows, err := ParseResidentImport(r, "residents.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	de, ok := domain.AsError(rows[0].Invalid)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidValue, de.Kind)
	assert.Equal(t, "checkInDate", de.Field)
	assert.Equal(t, "yesterday", de.Value)
	assert.Nil(t, rows[0].CheckInDate)

	assert.NoError(t, rows[1].Invalid)
	assert.Equal(t, date(2025, 1, 15), *rows[1].CheckInDate)
}

func TestParseEviction_InvalidDate(t *testing.T) {
	csv := "name,unitCode,checkOutDate\nIvan,C-01,31/31/2026\n"

	rows, err := ParseEviction(strings.NewReader(csv), "eviction.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, domain.IsKind(rows[0].Invalid, domain.KindInvalidValue))
}

func TestParseEviction_CSV(t *testing.T) {
	csv := "الاسم,رقم الجواز,كود الوحدة,تاريخ الإخلاء,السبب\n" +
		"Ivan Petrov,AB1234567,C-01,2026-02-08,نقل مشروع\n"

	rows, err := ParseEviction(strings.NewReader(csv), "eviction.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AB1234567", rows[0].NationalID)
	assert.Equal(t, "C-01", rows[0].UnitCode)
	assert.Equal(t, "نقل مشروع", rows[0].Reason)
	require.NotNil(t, rows[0].CheckOutDate)
	assert.Equal(t, date(2026, 2, 8), *rows[0].CheckOutDate)
}

func TestParseUnits(t *testing.T) {
	r := buildWorkbook(t, [][]any{
		{"الكود", "الاسم", "النوع", "الطابق", "الغرف", "الأسرة"},
		{"S300-1", "شقة S300-1", "شقة", "1", 2, 4},
		{"C-01", "شاليه C-01", "شاليه", "أرضي", "", ""},
		{"", "no code", "chalet", "", "", ""},
	})

	units, err := ParseUnits(r, "units.xlsx")
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, domain.UnitTypeApartment, units[0].Type)
	assert.Equal(t, 4, units[0].Beds)
	assert.Equal(t, domain.UnitTypeChalet, units[1].Type)
	assert.Equal(t, 1, units[1].Rooms)
	assert.Equal(t, 1, units[1].Beds)
}

func TestParse_EmptyWorkbook(t *testing.T) {
	r := buildWorkbook(t, nil)
	_, err := ParseUnits(r, "units.xlsx")
	assert.ErrorIs(t, err, ErrEmptySheet)
}

func TestTemplatesRoundTrip(t *testing.T) {
	b, err := ResidentImportTemplate()
	require.NoError(t, err)
	rows, err := ParseResidentImport(bytes.NewReader(b), "template.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A-1011", rows[0].UnitCode)

	b, err = EvictionTemplate()
	require.NoError(t, err)
	ev, err := ParseEviction(bytes.NewReader(b), "template.xlsx")
	require.NoError(t, err)
	assert.Len(t, ev, 2)

	b, err = UnitImportTemplate()
	require.NoError(t, err)
	units, err := ParseUnits(bytes.NewReader(b), "template.xlsx")
	require.NoError(t, err)
	assert.Len(t, units, 3)
}

func TestOccupancyStatsExport(t *testing.T) {
	b, err := OccupancyStatsExport([]service.OccupancyStatsRow{
		{UnitCode: "A-1", BuildingName: "-", TotalBeds: 4, OccupiedBeds: 3, VacantBeds: 1, Status: domain.UnitStatusOccupied},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("الإشغال")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"A-1", "-", "4", "3", "1", "occupied"}, rows[1])
}
