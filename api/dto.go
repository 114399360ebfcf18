/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupled from the domain types
  so field names can evolve without breaking the ledgers' persisted form.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"time"

	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// ATTENDANCE
// =============================================================================

// AttendanceRecordDTO mirrors ledger.AttendanceRecord on the wire.
type AttendanceRecordDTO struct {
	WorkerID   string `json:"worker_id"`
	Date       string `json:"date"` // YYYY-MM-DD
	Status     string `json:"status"`
	FolderName string `json:"folder_name"`
}

// SaveAttendanceRequest is one save call. Merge selects the explicit
// union semantics instead of the default whole-batch replacement.
type SaveAttendanceRequest struct {
	Records []AttendanceRecordDTO `json:"records"`
	Merge   bool                  `json:"merge,omitempty"`
}

// =============================================================================
// ADVANCES
// =============================================================================

// CreateAdvanceRequest creates one advance per listed worker.
type CreateAdvanceRequest struct {
	Workers []AdvanceWorkerRef `json:"workers"`
	Amount  string             `json:"amount"`
	Date    string             `json:"date"`
	Remarks string             `json:"remarks,omitempty"`
}

type AdvanceWorkerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AdvanceDTO represents an advance in API responses.
type AdvanceDTO struct {
	ID         string `json:"id"`
	WorkerID   string `json:"worker_id"`
	WorkerName string `json:"worker_name"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Remarks    string `json:"remarks,omitempty"`
	Deducted   bool   `json:"deducted"`
	DeductedOn string `json:"deducted_on,omitempty"`
}

// DeleteAdvancesRequest deletes the listed advances.
type DeleteAdvancesRequest struct {
	IDs []string `json:"ids"`
}

// =============================================================================
// RATES / REGISTRY
// =============================================================================

type RatesDTO struct {
	FullDay string `json:"full_day"`
	HalfDay string `json:"half_day"`
}

type CreateFolderRequest struct {
	Name string `json:"name"`
}

type CreateWorkerRequest struct {
	Name   string `json:"name"`
	Folder string `json:"folder"`
}

type RenameWorkerRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// REPORTS
// =============================================================================

// GenerateReportRequest triggers one settlement run.
type GenerateReportRequest struct {
	FolderName        string   `json:"folder_name"`
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
	Format            string   `json:"format,omitempty"` // xlsx (default) or csv
	SettleAdvances    bool     `json:"settle_advances"`
	SelectedWorkerIDs []string `json:"selected_worker_ids,omitempty"`
}

// ReportRowDTO is one worker's line in the response.
type ReportRowDTO struct {
	WorkerID        string   `json:"worker_id"`
	Name            string   `json:"name"`
	Statuses        []string `json:"statuses"`
	PresentCount    int      `json:"present_count"`
	HalfDayCount    int      `json:"half_day_count"`
	TotalPayment    string   `json:"total_payment"`
	AdvanceDeducted string   `json:"advance_deducted"`
	AdvanceRemarks  string   `json:"advance_remarks,omitempty"`
	NetPayment      string   `json:"net_payment"`
}

// ReportDTO is the generation response.
type ReportDTO struct {
	FolderName   string           `json:"folder_name"`
	StartDate    string           `json:"start_date"`
	EndDate      string           `json:"end_date"`
	Dates        []string         `json:"dates"`
	Rows         []ReportRowDTO   `json:"rows"`
	TotalNet     string           `json:"total_net"`
	Denomination DenominationDTO  `json:"denomination"`
	Artifact     ReportArtifactDTO `json:"artifact"`
}

type DenominationDTO struct {
	CountHigh int `json:"count_high"`
	CountLow  int `json:"count_low"`
}

// ReportArtifactDTO represents a saved report artifact.
type ReportArtifactDTO struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	FolderName  string `json:"folder_name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	StoragePath string `json:"storage_path"`
	CreatedAt   string `json:"created_at"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAdvanceDTO(adv ledger.Advance) AdvanceDTO {
	dto := AdvanceDTO{
		ID:         adv.ID,
		WorkerID:   adv.WorkerID,
		WorkerName: adv.WorkerName,
		Amount:     adv.Amount.String(),
		Date:       adv.Date.String(),
		Remarks:    adv.Remarks,
		Deducted:   adv.Deducted,
	}
	if adv.DeductedOn != nil {
		dto.DeductedOn = adv.DeductedOn.Format(time.RFC3339)
	}
	return dto
}

func toAdvanceDTOs(advances []ledger.Advance) []AdvanceDTO {
	dtos := make([]AdvanceDTO, len(advances))
	for i, adv := range advances {
		dtos[i] = toAdvanceDTO(adv)
	}
	return dtos
}

func toArtifactDTO(meta ledger.ReportArtifactMeta) ReportArtifactDTO {
	return ReportArtifactDTO{
		ID:          meta.ID,
		Filename:    meta.Filename,
		FolderName:  meta.FolderName,
		StartDate:   meta.StartDate.String(),
		EndDate:     meta.EndDate.String(),
		StoragePath: meta.StoragePath,
		CreatedAt:   meta.CreatedAt.Format(time.RFC3339),
	}
}

func toReportDTO(report *payroll.Report) ReportDTO {
	dates := make([]string, len(report.Dates))
	for i, d := range report.Dates {
		dates[i] = d.String()
	}
	rows := make([]ReportRowDTO, len(report.Rows))
	for i, row := range report.Rows {
		statuses := make([]string, len(row.Statuses))
		for j, s := range row.Statuses {
			statuses[j] = s.Code()
		}
		rows[i] = ReportRowDTO{
			WorkerID:        row.WorkerID,
			Name:            row.Name,
			Statuses:        statuses,
			PresentCount:    row.PresentCount,
			HalfDayCount:    row.HalfDayCount,
			TotalPayment:    row.TotalPayment.String(),
			AdvanceDeducted: row.AdvanceDeducted.String(),
			AdvanceRemarks:  row.AdvanceRemarks,
			NetPayment:      row.NetPayment.String(),
		}
	}
	return ReportDTO{
		FolderName: report.FolderName,
		StartDate:  report.Start.String(),
		EndDate:    report.End.String(),
		Dates:      dates,
		Rows:       rows,
		TotalNet:   report.TotalNet.String(),
		Denomination: DenominationDTO{
			CountHigh: report.Denomination.CountHigh,
			CountLow:  report.Denomination.CountLow,
		},
		Artifact: toArtifactDTO(report.Meta),
	}
}
