package export

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/warp/payroll-engine/payroll"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// XLSX EXPORTER - Spreadsheet artifacts via excelize
// =============================================================================

type XLSXExporter struct {
	Dir string
}

// Export writes the report grid into a new workbook and returns its path.
func (e *XLSXExporter) Export(ctx context.Context, report *payroll.Report) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, report.FolderName); err == nil {
		sheet = report.FolderName
	}

	for rowIdx, line := range table(report) {
		for colIdx, val := range line {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return "", fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return "", fmt.Errorf("failed to set cell value: %w", err)
			}
		}
	}

	path := filepath.Join(e.Dir, artifactName(report, "xlsx"))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}
