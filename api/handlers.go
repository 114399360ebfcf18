/*
handlers.go - HTTP API handlers

PURPOSE:
  Exposes the ledgers and the settlement engine over REST. Handlers parse
  and validate input, delegate to the domain packages, and map errors to
  status codes:
  - 400: validation errors (bad dates, duplicate names, empty folders)
  - 404: missing records
  - 500: storage failures

ENDPOINTS:
  Attendance:
    POST   /api/attendance                 Save a batch (replace or merge)
    GET    /api/attendance?folder=&date=   Query a folder (date optional)
    DELETE /api/attendance?folder=&date=   Delete by folder or exact pair

  Advances:
    GET    /api/advances                   All advances
    GET    /api/advances/unsettled?folder=&as_of=
    POST   /api/advances                   One entry per listed worker
    POST   /api/advances/delete            Bulk delete
    DELETE /api/advances/{id}              Delete one
    DELETE /api/advances                   Delete all

  Rates, folders, workers: plain CRUD.

  Reports:
    POST   /api/reports                    Generate (and optionally settle)
    GET    /api/reports                    List saved artifacts
    GET    /api/reports/{id}/download      Stream the artifact file
    DELETE /api/reports/{id}               Remove entry and artifact file

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: router and middleware
*/
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/registry"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Attendance *ledger.AttendanceLedger
	Advances   *ledger.AdvanceLedger
	Rates      *ledger.RateBook
	Archive    *ledger.ReportArchive
	Registry   *registry.Registry
	ExportDir  string
	Log        *slog.Logger
}

func NewHandler(attendance *ledger.AttendanceLedger, advances *ledger.AdvanceLedger,
	rates *ledger.RateBook, archive *ledger.ReportArchive, reg *registry.Registry,
	exportDir string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		Attendance: attendance,
		Advances:   advances,
		Rates:      rates,
		Archive:    archive,
		Registry:   reg,
		ExportDir:  exportDir,
		Log:        log,
	}
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

func (h *Handler) SaveAttendance(w http.ResponseWriter, r *http.Request) {
	var req SaveAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, "No records in batch", nil)
		return
	}

	records := make([]ledger.AttendanceRecord, 0, len(req.Records))
	for _, dto := range req.Records {
		date, err := ledger.ParseDay(dto.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		records = append(records, ledger.AttendanceRecord{
			WorkerID:   dto.WorkerID,
			Date:       date,
			Status:     ledger.Status(dto.Status),
			FolderName: dto.FolderName,
		})
	}

	var err error
	if req.Merge {
		err = h.Attendance.SaveBatchMerge(r.Context(), records)
	} else {
		err = h.Attendance.SaveBatch(r.Context(), records)
	}
	if err != nil {
		writeDomainError(w, "Failed to save attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"saved": len(records)})
}

func (h *Handler) QueryAttendance(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		writeError(w, http.StatusBadRequest, "folder is required", nil)
		return
	}
	var date ledger.Day
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := ledger.ParseDay(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		date = parsed
	}
	records := h.Attendance.QueryByFolder(r.Context(), folder, date)
	dtos := make([]AttendanceRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = AttendanceRecordDTO{
			WorkerID:   rec.WorkerID,
			Date:       rec.Date.String(),
			Status:     string(rec.Status),
			FolderName: rec.FolderName,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		writeError(w, http.StatusBadRequest, "folder is required", nil)
		return
	}
	var err error
	if raw := r.URL.Query().Get("date"); raw != "" {
		var date ledger.Day
		date, err = ledger.ParseDay(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		err = h.Attendance.DeleteByFolderAndDate(r.Context(), folder, date)
	} else {
		err = h.Attendance.DeleteByFolder(r.Context(), folder)
	}
	if err != nil {
		writeDomainError(w, "Failed to delete attendance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ADVANCE HANDLERS
// =============================================================================

func (h *Handler) ListAdvances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toAdvanceDTOs(h.Advances.All(r.Context())))
}

// ListUnsettledAdvances scopes unsettled advances to a folder's workers.
func (h *Handler) ListUnsettledAdvances(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		writeError(w, http.StatusBadRequest, "folder is required", nil)
		return
	}
	asOf := ledger.Today()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := ledger.ParseDay(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
			return
		}
		asOf = parsed
	}

	workers, err := h.Registry.WorkersInFolder(r.Context(), folder)
	if err != nil {
		writeDomainError(w, "Failed to resolve folder members", err)
		return
	}
	ids := make(map[string]bool, len(workers))
	for _, worker := range workers {
		ids[worker.ID] = true
	}
	writeJSON(w, http.StatusOK, toAdvanceDTOs(h.Advances.ListUnsettled(r.Context(), asOf, ids)))
}

func (h *Handler) CreateAdvances(w http.ResponseWriter, r *http.Request) {
	var req CreateAdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Workers) == 0 {
		writeError(w, http.StatusBadRequest, "No workers selected", nil)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	date, err := ledger.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	created := make([]ledger.Advance, 0, len(req.Workers))
	for _, ref := range req.Workers {
		adv, err := h.Advances.Create(r.Context(), ref.ID, ref.Name, amount, date, req.Remarks)
		if err != nil {
			writeDomainError(w, "Failed to create advance", err)
			return
		}
		created = append(created, adv)
	}
	writeJSON(w, http.StatusCreated, toAdvanceDTOs(created))
}

func (h *Handler) DeleteAdvance(w http.ResponseWriter, r *http.Request) {
	if err := h.Advances.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete advance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteAdvances(w http.ResponseWriter, r *http.Request) {
	var req DeleteAdvancesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Advances.DeleteMany(r.Context(), req.IDs); err != nil {
		writeDomainError(w, "Failed to delete advances", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteAllAdvances(w http.ResponseWriter, r *http.Request) {
	if err := h.Advances.DeleteAll(r.Context()); err != nil {
		writeDomainError(w, "Failed to delete advances", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RATE HANDLERS
// =============================================================================

func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	rates := h.Rates.All(r.Context())
	dtos := make(map[string]RatesDTO, len(rates))
	for folder, p := range rates {
		dtos[folder] = RatesDTO{FullDay: p.FullDay.String(), HalfDay: p.HalfDay.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SetRates(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")
	var dto RatesDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	full, err := decimal.NewFromString(dto.FullDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid full_day rate", err)
		return
	}
	half, err := decimal.NewFromString(dto.HalfDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid half_day rate", err)
		return
	}
	if err := h.Rates.Set(r.Context(), folder, ledger.PaymentRates{FullDay: full, HalfDay: half}); err != nil {
		writeDomainError(w, "Failed to set rates", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteRates(w http.ResponseWriter, r *http.Request) {
	if err := h.Rates.Remove(r.Context(), chi.URLParam(r, "folder")); err != nil {
		writeDomainError(w, "Failed to remove rates", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REGISTRY HANDLERS
// =============================================================================

func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Registry.Folders(r.Context()))
}

func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	folder, err := h.Registry.CreateFolder(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, "Failed to create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

// DeleteFolder removes the folder, its workers, its attendance rows and
// its explicit rate entry.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.Registry.DeleteFolder(r.Context(), name); err != nil {
		writeDomainError(w, "Failed to delete folder", err)
		return
	}
	if err := h.Attendance.DeleteByFolder(r.Context(), name); err != nil {
		writeDomainError(w, "Failed to delete folder attendance", err)
		return
	}
	if err := h.Rates.Remove(r.Context(), name); err != nil {
		writeDomainError(w, "Failed to remove folder rates", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	if folder := r.URL.Query().Get("folder"); folder != "" {
		workers, err := h.Registry.WorkersInFolder(r.Context(), folder)
		if err != nil {
			writeDomainError(w, "Failed to list workers", err)
			return
		}
		writeJSON(w, http.StatusOK, workers)
		return
	}
	writeJSON(w, http.StatusOK, h.Registry.Workers(r.Context()))
}

func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	worker, err := h.Registry.CreateWorker(r.Context(), req.Name, req.Folder)
	if err != nil {
		writeDomainError(w, "Failed to create worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, worker)
}

func (h *Handler) RenameWorker(w http.ResponseWriter, r *http.Request) {
	var req RenameWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Registry.RenameWorker(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		writeDomainError(w, "Failed to rename worker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.DeleteWorker(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete worker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := ledger.ParseDay(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := ledger.ParseDay(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err)
		return
	}
	exporter, err := export.New(format, h.ExportDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to prepare exporter", err)
		return
	}

	engine := payroll.NewEngine(payroll.Deps{
		Attendance: h.Attendance,
		Advances:   h.Advances,
		Rates:      h.Rates,
		Workers:    h.Registry,
		Exporter:   exporter,
		Archive:    h.Archive,
		Log:        h.Log,
	})
	report, err := engine.Generate(r.Context(), payroll.ReportRequest{
		FolderName:        req.FolderName,
		Start:             start,
		End:               end,
		SettleAdvances:    req.SettleAdvances,
		SelectedWorkerIDs: req.SelectedWorkerIDs,
	})
	if err != nil {
		writeDomainError(w, "Failed to generate report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	metas := h.Archive.List(r.Context())
	dtos := make([]ReportArtifactDTO, len(metas))
	for i, meta := range metas {
		dtos[i] = toArtifactDTO(meta)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, meta := range h.Archive.List(r.Context()) {
		if meta.ID == id {
			w.Header().Set("Content-Disposition", "attachment; filename="+meta.Filename)
			http.ServeFile(w, r, meta.StoragePath)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Report not found", nil)
}

// DeleteReport removes the archive entry and the underlying artifact file.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	meta, err := h.Archive.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to delete report", err)
		return
	}
	if err := os.Remove(meta.StoragePath); err != nil && !os.IsNotExist(err) {
		h.Log.Error("failed to delete report artifact", "path", meta.StoragePath, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, msg string, err error) {
	switch {
	case payroll.IsValidationError(err):
		writeError(w, http.StatusBadRequest, msg, err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, msg, err)
	default:
		writeError(w, http.StatusInternalServerError, msg, err)
	}
}
