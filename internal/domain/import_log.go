package domain

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// ImportRowError is one failed row of a bulk operation. Row is 1-based.
// Message is filled at the API boundary in the caller's language; Cause is never stored.
type ImportRowError struct {
	Row     int       `json:"row"`
	Error   string    `json:"error"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Message string    `json:"message,omitempty"`
	Cause   error     `json:"-"`
}

// ImportErrors is stored as a JSONB array.
type ImportErrors []ImportRowError

func (e ImportErrors) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (e *ImportErrors) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*e = ImportErrors{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("import errors: unsupported column type %T", src)
	}
	return json.Unmarshal(b, e)
}

// ImportLog maps import_logs: one row per bulk import or eviction run.
type ImportLog struct {
	ID          string         `db:"id"`
	FileName    string         `db:"file_name"`
	TotalRows   int            `db:"total_rows"`
	SuccessRows int            `db:"success_rows"`
	FailedRows  int            `db:"failed_rows"`
	Errors      ImportErrors   `db:"errors"`
	Status      ImportStatus   `db:"status"`
	ImportedBy  sql.NullString `db:"imported_by"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// Finish records the per-row outcome. The run is failed when every row failed,
// which includes a file with no rows at all.
func (l *ImportLog) Finish(success int, errs ImportErrors) {
	l.SuccessRows = success
	l.FailedRows = len(errs)
	l.Errors = errs
	if success == 0 && len(errs) == l.TotalRows {
		l.Status = ImportStatusFailed
		return
	}
	l.Status = ImportStatusCompleted
}

func (l *ImportLog) ToJSON() map[string]any {
	errs := l.Errors
	if errs == nil {
		errs = ImportErrors{}
	}
	return map[string]any{
		"id":           l.ID,
		"file_name":    l.FileName,
		"total_rows":   l.TotalRows,
		"success_rows": l.SuccessRows,
		"failed_rows":  l.FailedRows,
		"errors":       errs,
		"status":       l.Status,
		"imported_by":  nullString(l.ImportedBy),
		"created_at":   l.CreatedAt,
	}
}
