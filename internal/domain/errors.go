package domain

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes engine failures so callers can build localized messages.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindCapacityExceeded   ErrorKind = "capacity_exceeded"
	KindPopulationMismatch ErrorKind = "population_mismatch"
	KindMissingField       ErrorKind = "missing_field"
	KindDuplicateCode      ErrorKind = "duplicate_code"
	KindConflict           ErrorKind = "conflict"
	KindNotAssigned        ErrorKind = "not_assigned"
	KindInvalidValue       ErrorKind = "invalid_value"
)

// Error is a business rule failure. Only the fields relevant to Kind are set.
type Error struct {
	Kind             ErrorKind
	Entity           string   // not_found, duplicate_code
	Field            string   // missing_field, invalid_value
	Value            string   // invalid_value
	Available        int      // capacity_exceeded
	Requested        int      // capacity_exceeded
	ExpectedUnitType UnitType // population_mismatch
	Reason           string   // conflict
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return e.Entity + " not found"
	case KindCapacityExceeded:
		return fmt.Sprintf("capacity exceeded: %d bed(s) available, %d requested", e.Available, e.Requested)
	case KindPopulationMismatch:
		return fmt.Sprintf("population mismatch: expected unit type %s", e.ExpectedUnitType)
	case KindMissingField:
		return e.Field + " is required"
	case KindDuplicateCode:
		if e.Entity != "" {
			return e.Entity + " code already exists"
		}
		return "code already exists"
	case KindConflict:
		return "conflict: " + e.Reason
	case KindNotAssigned:
		return "resident is not assigned to a unit"
	case KindInvalidValue:
		return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
	}
	return string(e.Kind)
}

func NotFound(entity string) error { return &Error{Kind: KindNotFound, Entity: entity} }

func CapacityExceeded(available, requested int) error {
	if available < 0 {
		available = 0
	}
	return &Error{Kind: KindCapacityExceeded, Available: available, Requested: requested}
}

func PopulationMismatch(expected UnitType) error {
	return &Error{Kind: KindPopulationMismatch, ExpectedUnitType: expected}
}

func MissingField(field string) error { return &Error{Kind: KindMissingField, Field: field} }

// InvalidValue reports a field whose value could not be read, e.g. an unparseable date cell.
func InvalidValue(field, value string) error {
	return &Error{Kind: KindInvalidValue, Field: field, Value: value}
}

func DuplicateCode(entity string) error { return &Error{Kind: KindDuplicateCode, Entity: entity} }

func Conflict(reason string) error { return &Error{Kind: KindConflict, Reason: reason} }

func NotAssigned() error { return &Error{Kind: KindNotAssigned} }

// AsError unwraps err into a business rule failure.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of a business rule failure, or "" for any other error.
func KindOf(err error) ErrorKind {
	if de, ok := AsError(err); ok {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a business rule failure of the given kind.
func IsKind(err error, kind ErrorKind) bool { return KindOf(err) == kind }
