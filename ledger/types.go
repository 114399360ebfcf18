/*
Package ledger provides the core attendance and advance bookkeeping engine.

PURPOSE:
  This package owns the persisted state of the system: daily attendance
  records per work folder, outstanding cash advances, per-folder wage
  rates, and metadata for generated report artifacts. Everything is kept
  as plain records behind a key-value Storage collaborator; the payroll
  package composes these ledgers into settlement runs.

KEY CONCEPTS IN THIS FILE (types.go):
  - Status: the three-valued attendance enum (Present, HalfDay, Absent)
  - AttendanceRecord: one worker's status for one folder on one day
  - Advance: an outstanding cash advance with a one-way settlement flag
  - PaymentRates: full-day/half-day wage rates for a folder
  - ReportArtifactMeta: bookkeeping for generated report files

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all money, never float64
  2. Overwrite-by-pair: attendance identity is (folder, date), see attendance.go
  3. One-way settlement: Advance.Deducted transitions false->true exactly once
  4. Validation at the boundary: persisted rows are validated on load,
     malformed rows are dropped with a logged error instead of trusted

SEE ALSO:
  - attendance.go: attendance ledger with the merge/overwrite contract
  - advance.go: advance ledger and settlement mutation
  - rates.go: wage rate resolution with Default fallback
  - storage.go: the key-value persistence interface
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ATTENDANCE STATUS - Fixed three-valued enum
// =============================================================================

type Status string

const (
	StatusPresent Status = "present"
	StatusHalfDay Status = "half_day"
	StatusAbsent  Status = "absent"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusHalfDay, StatusAbsent:
		return true
	}
	return false
}

// Code returns the single-letter code used in report grids.
func (s Status) Code() string {
	switch s {
	case StatusPresent:
		return "P"
	case StatusHalfDay:
		return "H"
	default:
		return "A"
	}
}

// =============================================================================
// ATTENDANCE RECORD
// =============================================================================

// AttendanceRecord is one worker's attendance for one folder on one day.
// The storage identity is the (FolderName, Date) pair: saving a batch for
// that pair replaces every previously stored row for the exact pair.
type AttendanceRecord struct {
	WorkerID   string `json:"worker_id"`
	Date       Day    `json:"date"`
	Status     Status `json:"status"`
	FolderName string `json:"folder_name"`
}

// Validate checks the fields a persisted row must carry.
func (r AttendanceRecord) Validate() error {
	if r.WorkerID == "" {
		return &RecordError{Field: "worker_id", Reason: "empty"}
	}
	if r.FolderName == "" {
		return &RecordError{Field: "folder_name", Reason: "empty"}
	}
	if r.Date.IsZero() {
		return &RecordError{Field: "date", Reason: "zero"}
	}
	if !r.Status.Valid() {
		return &RecordError{Field: "status", Reason: "unknown value " + string(r.Status)}
	}
	return nil
}

// PairKey identifies the batch a record belongs to.
type PairKey struct {
	FolderName string
	Date       Day
}

func (r AttendanceRecord) Pair() PairKey {
	return PairKey{FolderName: r.FolderName, Date: r.Date}
}

// =============================================================================
// ADVANCE - Outstanding cash advance with one-way settlement
// =============================================================================

// Advance is a cash advance handed to a worker ahead of payday.
// WorkerName is a denormalized snapshot taken at creation time; renaming a
// worker does not rewrite historical advances.
type Advance struct {
	ID         string          `json:"id"`
	WorkerID   string          `json:"worker_id"`
	WorkerName string          `json:"worker_name"`
	Amount     decimal.Decimal `json:"amount"`
	Date       Day             `json:"date"`
	Remarks    string          `json:"remarks,omitempty"`
	Deducted   bool            `json:"deducted"`
	DeductedOn *time.Time      `json:"deducted_on,omitempty"`
}

// Validate checks the fields a persisted advance must carry.
func (a Advance) Validate() error {
	if a.ID == "" {
		return &RecordError{Field: "id", Reason: "empty"}
	}
	if a.WorkerID == "" {
		return &RecordError{Field: "worker_id", Reason: "empty"}
	}
	if a.Amount.IsNegative() {
		return &RecordError{Field: "amount", Reason: "negative"}
	}
	if a.Date.IsZero() {
		return &RecordError{Field: "date", Reason: "zero"}
	}
	if a.Deducted && a.DeductedOn == nil {
		return &RecordError{Field: "deducted_on", Reason: "missing for settled advance"}
	}
	return nil
}

// =============================================================================
// WAGE RATES
// =============================================================================

// DefaultRateKey is the mandatory fallback entry in the rate book.
const DefaultRateKey = "Default"

// PaymentRates holds the daily wage rates for a folder.
type PaymentRates struct {
	FullDay decimal.Decimal `json:"full_day"`
	HalfDay decimal.Decimal `json:"half_day"`
}

func (p PaymentRates) Validate() error {
	if p.FullDay.IsNegative() || p.HalfDay.IsNegative() {
		return &RecordError{Field: "rates", Reason: "negative"}
	}
	return nil
}

// =============================================================================
// REPORT ARTIFACT METADATA
// =============================================================================

// ReportArtifactMeta records one generated report file so it can be listed
// and deleted later. Append-only; removed only by explicit user deletion.
type ReportArtifactMeta struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	FolderName  string    `json:"folder_name"`
	StartDate   Day       `json:"start_date"`
	EndDate     Day       `json:"end_date"`
	StoragePath string    `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
}

// =============================================================================
// STORAGE KEYS - The persisted collections
// =============================================================================

const (
	KeyAttendance   = "attendance"
	KeyAdvances     = "advances"
	KeyFolderRates  = "folderRates"
	KeySavedReports = "savedReports"
)
