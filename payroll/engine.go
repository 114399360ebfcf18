/*
engine.go - Report generation and one-time advance settlement

ALGORITHM (per run):
  1.  Reject an inverted date range before touching any ledger.
  2.  Force-reload the attendance ledger so the run sees on-disk truth.
  3.  Resolve the folder's workers; an empty folder is an error.
  4.  Enumerate every calendar date in the inclusive range.
  5.  Missing attendance rows count as Absent (absence-by-default).
  6.  Price counts with the folder's rates (Default fallback).
  7.  With settlement enabled, sum each selected worker's unsettled
      advances dated on or before the range end; net = max(0, total - sum).
  8.  Optimize the note breakdown for the batch net total.
  9.  Export the artifact, THEN write the settlement back, THEN archive.

FAILURE ORDERING (step 9):
  Export failure aborts before any settlement write, so a retry is always
  safe (SettlementConsistencyError). Settlement write failure aborts
  before the archive entry is persisted and removes the exported file, so
  no artifact ever claims deductions that were never recorded.
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/ledger"
)

// =============================================================================
// ERRORS
// =============================================================================

// SettlementConsistencyError reports a run that was aborted to keep the
// advance ledger and the report archive consistent: either the export
// failed before settlement (advances left unsettled, retry safe) or the
// settlement write failed after export (artifact discarded).
type SettlementConsistencyError struct {
	Stage string // "export" or "settle"
	Err   error
}

func (e *SettlementConsistencyError) Error() string {
	return fmt.Sprintf("report aborted at %s: %v", e.Stage, e.Err)
}

func (e *SettlementConsistencyError) Unwrap() error { return e.Err }

// =============================================================================
// ENGINE
// =============================================================================

// Deps are the collaborators a settlement engine composes.
type Deps struct {
	Attendance *ledger.AttendanceLedger
	Advances   *ledger.AdvanceLedger
	Rates      *ledger.RateBook
	Workers    WorkerDirectory
	Exporter   Exporter
	Archive    *ledger.ReportArchive
	Log        *slog.Logger
}

type Engine struct {
	attendance *ledger.AttendanceLedger
	advances   *ledger.AdvanceLedger
	rates      *ledger.RateBook
	workers    WorkerDirectory
	exporter   Exporter
	archive    *ledger.ReportArchive
	log        *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewEngine(deps Deps) *Engine {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		attendance: deps.Attendance,
		advances:   deps.Advances,
		rates:      deps.Rates,
		workers:    deps.Workers,
		exporter:   deps.Exporter,
		archive:    deps.Archive,
		log:        log,
		now:        time.Now,
	}
}

// Generate runs one report: compute, export, settle, archive.
func (e *Engine) Generate(ctx context.Context, req ReportRequest) (*Report, error) {
	report, consumed, err := e.Compute(ctx, req)
	if err != nil {
		return nil, err
	}

	path, err := e.exporter.Export(ctx, report)
	if err != nil {
		// Nothing has been settled yet; the whole run is retryable.
		return nil, &SettlementConsistencyError{Stage: "export", Err: err}
	}
	report.ArtifactPath = path

	if req.SettleAdvances && len(consumed) > 0 {
		if _, serr := e.advances.Settle(ctx, consumed, req.End); serr != nil {
			// The artifact would claim deductions that were never
			// recorded; discard it and abort before archiving.
			if rmErr := os.Remove(path); rmErr != nil {
				e.log.Error("failed to remove orphaned artifact", "path", path, "error", rmErr)
			}
			return nil, &SettlementConsistencyError{Stage: "settle", Err: serr}
		}
	}

	meta := ledger.ReportArtifactMeta{
		ID:          uuid.NewString(),
		Filename:    filepath.Base(path),
		FolderName:  req.FolderName,
		StartDate:   req.Start,
		EndDate:     req.End,
		StoragePath: path,
		CreatedAt:   e.now(),
	}
	if err := e.archive.Add(ctx, meta); err != nil {
		return nil, err
	}
	report.Meta = meta

	e.log.Info("report generated",
		"folder", req.FolderName,
		"start", req.Start.String(),
		"end", req.End.String(),
		"workers", len(report.Rows),
		"settled_advances", len(consumed),
		"artifact", path)
	return report, nil
}

// Compute builds the report figures without side effects beyond the
// attendance reload. It returns the ids of the advances the run consumed
// so Generate can settle exactly those.
func (e *Engine) Compute(ctx context.Context, req ReportRequest) (*Report, map[string]bool, error) {
	if req.Start.IsZero() || req.End.IsZero() {
		return nil, nil, fmt.Errorf("report range: %w", ledger.ErrInvalidPeriod)
	}
	if req.Start.After(req.End) {
		return nil, nil, fmt.Errorf("report range %s..%s: %w", req.Start, req.End, ledger.ErrInvalidPeriod)
	}

	// A failed reload degrades to an empty ledger; the run proceeds with
	// absence-by-default rather than aborting.
	if err := e.attendance.Reload(ctx); err != nil {
		e.log.Error("attendance reload failed before report", "error", err)
	}

	workers, err := e.workers.WorkersInFolder(ctx, req.FolderName)
	if err != nil {
		return nil, nil, err
	}
	if len(workers) == 0 {
		return nil, nil, fmt.Errorf("folder %q: %w", req.FolderName, ledger.ErrNoWorkers)
	}

	rates, err := e.rates.Resolve(ctx, req.FolderName)
	if err != nil {
		return nil, nil, err
	}

	dates := ledger.DaysInRange(req.Start, req.End)
	selected := make(map[string]bool, len(req.SelectedWorkerIDs))
	for _, id := range req.SelectedWorkerIDs {
		selected[id] = true
	}

	consumed := make(map[string]bool)
	rows := make([]ReportRow, 0, len(workers))
	totalNet := decimal.Zero

	for _, w := range workers {
		row := ReportRow{
			WorkerID: w.ID,
			Name:     w.Name,
			Statuses: make([]ledger.Status, 0, len(dates)),
		}
		for _, d := range dates {
			status := ledger.StatusAbsent
			if rec, ok := e.attendance.Lookup(ctx, w.ID, req.FolderName, d); ok {
				status = rec.Status
			}
			row.Statuses = append(row.Statuses, status)
			switch status {
			case ledger.StatusPresent:
				row.PresentCount++
			case ledger.StatusHalfDay:
				row.HalfDayCount++
			}
		}
		row.TotalPayment = rates.Pay(row.PresentCount, row.HalfDayCount)
		row.AdvanceDeducted = decimal.Zero

		if req.SettleAdvances && selected[w.ID] {
			unsettled := e.advances.ListUnsettled(ctx, req.End, map[string]bool{w.ID: true})
			var remarks []string
			for _, adv := range unsettled {
				row.AdvanceDeducted = row.AdvanceDeducted.Add(adv.Amount)
				remarks = append(remarks, fmt.Sprintf("%s: %s", adv.Date, adv.Amount))
				consumed[adv.ID] = true
			}
			row.AdvanceRemarks = strings.Join(remarks, "; ")
		}

		row.NetPayment = row.TotalPayment.Sub(row.AdvanceDeducted)
		if row.NetPayment.IsNegative() {
			row.NetPayment = decimal.Zero
		}
		totalNet = totalNet.Add(row.NetPayment)
		rows = append(rows, row)
	}

	report := &Report{
		FolderName:   req.FolderName,
		Start:        req.Start,
		End:          req.End,
		Dates:        dates,
		Rows:         rows,
		TotalNet:     totalNet,
		Denomination: OptimizeNotes(totalNet),
		GeneratedAt:  e.now(),
	}
	return report, consumed, nil
}

// IsValidationError reports whether err should surface as bad input.
func IsValidationError(err error) bool {
	return ledger.IsValidation(err) || errors.Is(err, ledger.ErrNoDefaultRate)
}
