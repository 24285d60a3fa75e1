package spreadsheet

import (
	"io"
	"strings"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/service"
)

var residentAliases = aliases{
	"الاسم": "name", "name": "name",
	"الرقم القومي": "nationalId", "رقم الجواز": "nationalId", "nationalid": "nationalId",
	"national id": "nationalId", "passportnumber": "nationalId", "passport number": "nationalId",
	"passport": "nationalId", "id": "nationalId",
	"الهاتف": "phone", "phone": "phone",
	"تاريخ التسكين": "checkInDate", "checkindate": "checkInDate", "check in": "checkInDate",
	"كود الوحدة": "unitCode", "unitcode": "unitCode", "unit code": "unitCode", "unit": "unitCode",
	"الشيفت": "shift", "الوردية": "shift", "shift": "shift",
	"تاريخ الرفد": "checkOutDate", "checkoutdate": "checkOutDate", "check out": "checkOutDate",
	"الجنس": "gender", "gender": "gender",
	"الجنسية": "nationality", "nationality": "nationality",
}

var evictionAliases = aliases{
	"الاسم": "name", "name": "name",
	"الرقم القومي": "nationalId", "رقم الجواز": "nationalId", "nationalid": "nationalId",
	"passportnumber": "nationalId", "passport number": "nationalId", "id": "nationalId",
	"كود الوحدة": "unitCode", "unitcode": "unitCode", "unit code": "unitCode", "unit": "unitCode",
	"تاريخ الإخلاء": "checkOutDate", "checkoutdate": "checkOutDate", "date": "checkOutDate",
	"السبب": "reason", "reason": "reason",
}

var unitAliases = aliases{
	"الكود": "code", "كود الوحدة": "code", "code": "code",
	"الاسم": "name", "name": "name",
	"النوع": "type", "type": "type",
	"الطابق": "floor", "floor": "floor",
	"الغرف": "rooms", "rooms": "rooms",
	"الأسرة": "beds", "beds": "beds",
	"ملاحظات": "notes", "notes": "notes",
}

// ParseResidentImport reads a residents import workbook.
func ParseResidentImport(r io.Reader, fileName string) ([]service.ResidentImportRow, error) {
	t, err := readTable(r, fileName, residentAliases)
	if err != nil {
		return nil, err
	}
	out := make([]service.ResidentImportRow, 0, len(t.rows))
	for _, rec := range t.rows {
		// 日期无法识别时只让该行失败
		checkIn, inErr := parseDate(rec, "checkInDate")
		checkOut, outErr := parseDate(rec, "checkOutDate")
		out = append(out, service.ResidentImportRow{
			Name:         rec.get("name"),
			NationalID:   rec.text("nationalId"),
			Phone:        rec.text("phone"),
			CheckInDate:  checkIn,
			UnitCode:     rec.get("unitCode"),
			Shift:        rec.get("shift"),
			CheckOutDate: checkOut,
			Gender:       parseGender(rec.get("gender")),
			Nationality:  rec.get("nationality"),
			Invalid:      firstErr(inErr, outErr),
		})
	}
	return out, nil
}

// ParseEviction reads an eviction workbook.
func ParseEviction(r io.Reader, fileName string) ([]service.EvictionRow, error) {
	t, err := readTable(r, fileName, evictionAliases)
	if err != nil {
		return nil, err
	}
	out := make([]service.EvictionRow, 0, len(t.rows))
	for _, rec := range t.rows {
		at, dateErr := parseDate(rec, "checkOutDate")
		out = append(out, service.EvictionRow{
			Name:         rec.get("name"),
			NationalID:   rec.text("nationalId"),
			UnitCode:     rec.get("unitCode"),
			CheckOutDate: at,
			Reason:       rec.get("reason"),
			Invalid:      dateErr,
		})
	}
	return out, nil
}

// ParseUnits reads a units workbook. Rows without a code or a name are dropped.
func ParseUnits(r io.Reader, fileName string) ([]service.UnitImportRow, error) {
	t, err := readTable(r, fileName, unitAliases)
	if err != nil {
		return nil, err
	}
	out := make([]service.UnitImportRow, 0, len(t.rows))
	for _, rec := range t.rows {
		code, name := rec.get("code"), rec.get("name")
		if code == "" || name == "" {
			continue
		}
		out = append(out, service.UnitImportRow{
			Code:  code,
			Name:  name,
			Type:  parseUnitType(rec.get("type")),
			Floor: rec.get("floor"),
			Rooms: parseCount(rec, "rooms"),
			Beds:  parseCount(rec, "beds"),
			Notes: rec.get("notes"),
		})
	}
	return out, nil
}

func parseUnitType(v string) domain.UnitType {
	v = strings.ToLower(v)
	if strings.Contains(v, "شاليه") || strings.Contains(v, "chalet") {
		return domain.UnitTypeChalet
	}
	return domain.UnitTypeApartment
}

func parseGender(v string) domain.Gender {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "male", "m", "ذكر":
		return domain.GenderMale
	case "female", "f", "أنثى", "انثى":
		return domain.GenderFemale
	}
	return ""
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
