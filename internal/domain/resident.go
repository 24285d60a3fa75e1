package domain

import (
	"database/sql"
	"strings"
	"time"
)

// Population is the resident discriminant. Each population has its own table and
// identity document.
type Population string

const (
	PopulationEgyptian Population = "egyptian"
	PopulationRussian  Population = "russian"
)

func (p Population) Valid() bool {
	return p == PopulationEgyptian || p == PopulationRussian
}

// UnitType returns the only unit type this population may be linked to.
func (p Population) UnitType() UnitType {
	if p == PopulationRussian {
		return UnitTypeChalet
	}
	return UnitTypeApartment
}

// DocumentField names the identity field of the population (national_id / passport_number).
func (p Population) DocumentField() string {
	if p == PopulationRussian {
		return "passport_number"
	}
	return "national_id"
}

func ParsePopulation(s string) (Population, bool) {
	p := Population(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

type ResidentStatus string

const (
	ResidentStatusActive      ResidentStatus = "active"
	ResidentStatusCheckedOut  ResidentStatus = "checked_out"
	ResidentStatusTransferred ResidentStatus = "transferred"
)

func (s ResidentStatus) Valid() bool {
	return s == ResidentStatusActive || s == ResidentStatusCheckedOut || s == ResidentStatusTransferred
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool { return g == GenderMale || g == GenderFemale }

const DefaultNationality = "Russian"

// Resident is one row of egyptian_residents or russian_residents, tagged by Population.
// Egyptian residents carry NationalID; Russian residents carry PassportNumber, Gender
// and Nationality. The identity fields of the other population stay empty.
type Resident struct {
	ID         string     `db:"id"` // UUID, PRIMARY KEY
	Population Population `db:"-"`  // which table the row lives in

	Name string `db:"name"` // VARCHAR(255), NOT NULL

	// egyptian identity
	NationalID string `db:"national_id"` // VARCHAR(20)

	// russian identity
	PassportNumber string `db:"passport_number"` // VARCHAR(50)
	Nationality    string `db:"nationality"`     // DEFAULT 'Russian'
	Gender         Gender `db:"gender"`          // male | female

	Phone sql.NullString `db:"phone"`
	Shift sql.NullString `db:"shift"`

	// placement
	UnitID     sql.NullString `db:"unit_id"`      // NULL once checked out
	LastUnitID sql.NullString `db:"last_unit_id"` // most recent unit, kept after check-out

	CheckInDate  time.Time      `db:"check_in_date"`
	CheckOutDate sql.NullTime   `db:"check_out_date"`
	Status       ResidentStatus `db:"status"`

	OCRConfidence sql.NullInt64  `db:"ocr_confidence"` // 0-100
	ImageURL      sql.NullString `db:"image_url"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DocumentNumber returns the identity document of the resident's population.
func (r *Resident) DocumentNumber() string {
	if r.Population == PopulationRussian {
		return r.PassportNumber
	}
	return r.NationalID
}

// IsPlaced reports whether the resident currently occupies a bed.
func (r *Resident) IsPlaced() bool {
	return r.Status == ResidentStatusActive && r.UnitID.Valid && r.UnitID.String != ""
}

// Ref returns the typed reference used by check-out and transfer.
func (r *Resident) Ref() ResidentRef {
	return ResidentRef{Population: r.Population, ID: r.ID}
}

func (r *Resident) ToJSON() map[string]any {
	m := map[string]any{
		"id":             r.ID,
		"type":           r.Population,
		"name":           r.Name,
		"phone":          nullString(r.Phone),
		"shift":          nullString(r.Shift),
		"unit_id":        nullString(r.UnitID),
		"last_unit_id":   nullString(r.LastUnitID),
		"check_in_date":  r.CheckInDate,
		"check_out_date": nullTime(r.CheckOutDate),
		"status":         r.Status,
		"image_url":      nullString(r.ImageURL),
	}
	if r.OCRConfidence.Valid {
		m["ocr_confidence"] = r.OCRConfidence.Int64
	} else {
		m["ocr_confidence"] = nil
	}
	if r.Population == PopulationRussian {
		m["passport_number"] = r.PassportNumber
		m["nationality"] = r.Nationality
		m["gender"] = r.Gender
	} else {
		m["national_id"] = r.NationalID
	}
	return m
}

// ResidentRef identifies a resident across the two population tables.
type ResidentRef struct {
	Population Population `json:"type"`
	ID         string     `json:"residentId"`
}
