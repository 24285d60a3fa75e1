package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Scope is the sector partition an item or a caller belongs to.
// The zero value is the global scope: a global item is visible to every caller and
// a global caller sees every item.
type Scope struct {
	sectorID string
}

// GlobalScope returns the unscoped partition.
func GlobalScope() Scope { return Scope{} }

// SectorScope returns the partition of one sector. An empty id is the global scope.
func SectorScope(sectorID string) Scope { return Scope{sectorID: sectorID} }

func (s Scope) IsGlobal() bool { return s.sectorID == "" }

// SectorID returns the sector id and false for the global scope.
func (s Scope) SectorID() (string, bool) {
	return s.sectorID, s.sectorID != ""
}

// Allows reports whether a caller scoped to s may see an item scoped to item.
// This is the single visibility rule used by every read path and by mutations that
// resolve a unit on behalf of a caller.
func (s Scope) Allows(item Scope) bool {
	if s.IsGlobal() || item.IsGlobal() {
		return true
	}
	return s.sectorID == item.sectorID
}

// Narrow applies an optional sector filter requested by the caller.
// Global callers may narrow to any sector; sector callers always stay in their own sector.
func (s Scope) Narrow(requested Scope) Scope {
	if s.IsGlobal() {
		return requested
	}
	return s
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return "sector:" + s.sectorID
}

// Scan maps a nullable sector_id column.
func (s *Scope) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		s.sectorID = ""
	case string:
		s.sectorID = v
	case []byte:
		s.sectorID = string(v)
	default:
		return fmt.Errorf("scope: unsupported column type %T", src)
	}
	return nil
}

// Value stores the global scope as NULL.
func (s Scope) Value() (driver.Value, error) {
	if s.IsGlobal() {
		return nil, nil
	}
	return s.sectorID, nil
}

func (s Scope) MarshalJSON() ([]byte, error) {
	if s.IsGlobal() {
		return []byte("null"), nil
	}
	return json.Marshal(s.sectorID)
}

func (s *Scope) UnmarshalJSON(b []byte) error {
	var id *string
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	if id == nil {
		s.sectorID = ""
		return nil
	}
	s.sectorID = *id
	return nil
}
