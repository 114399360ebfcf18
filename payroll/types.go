/*
Package payroll composes the ledgers into settlement runs.

PURPOSE:
  The settlement engine pulls attendance for a folder over a date range,
  prices it with the folder's wage rates, deducts the selected unsettled
  advances exactly once, and hands the table to the export collaborator.
  The denomination optimizer (denomination.go) turns the batch total into
  a physical cash breakdown.

KEY CONCEPTS IN THIS FILE (types.go):
  - ReportRequest: the parameters of one report generation
  - ReportRow: the derived per-worker line (never persisted)
  - Report: the full computed result handed to the exporter

SEE ALSO:
  - engine.go: the generation algorithm and its failure ordering
  - ledger/: the record stores this package composes
*/
package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/registry"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// WorkerDirectory resolves folder membership. registry.Registry satisfies it.
type WorkerDirectory interface {
	WorkersInFolder(ctx context.Context, folder string) ([]registry.Worker, error)
}

// Exporter renders a computed report into a shareable artifact and returns
// its storage path. The engine never inspects the artifact's bytes.
type Exporter interface {
	Export(ctx context.Context, report *Report) (string, error)
}

// =============================================================================
// REQUEST / RESULT TYPES
// =============================================================================

// ReportRequest describes one report generation run.
type ReportRequest struct {
	FolderName string
	Start      Day
	End        Day

	// SettleAdvances enables the one-time deduction write-back.
	SettleAdvances bool
	// SelectedWorkerIDs limits which workers' advances are eligible for
	// deduction in this run. Ignored unless SettleAdvances is set.
	SelectedWorkerIDs []string
}

// Day aliases the ledger date type for callers of this package.
type Day = ledger.Day

// ReportRow is the derived per-worker report line. Not persisted.
type ReportRow struct {
	WorkerID        string          `json:"worker_id"`
	Name            string          `json:"name"`
	Statuses        []ledger.Status `json:"statuses"` // one per report date, in order
	PresentCount    int             `json:"present_count"`
	HalfDayCount    int             `json:"half_day_count"`
	TotalPayment    decimal.Decimal `json:"total_payment"`
	AdvanceDeducted decimal.Decimal `json:"advance_deducted"`
	AdvanceRemarks  string          `json:"advance_remarks,omitempty"`
	NetPayment      decimal.Decimal `json:"net_payment"`
}

// Report is the full computed result of a generation run.
type Report struct {
	FolderName   string
	Start        Day
	End          Day
	Dates        []Day
	Rows         []ReportRow
	TotalNet     decimal.Decimal
	Denomination NoteBreakdown
	GeneratedAt  time.Time

	// Set after export and archiving.
	ArtifactPath string
	Meta         ledger.ReportArtifactMeta
}
