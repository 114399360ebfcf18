package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// CSV EXPORTER - Plain-text artifacts
// =============================================================================

type CSVExporter struct {
	Dir string
}

// Export writes the report grid as CSV and returns the file path.
func (e *CSVExporter) Export(ctx context.Context, report *payroll.Report) (string, error) {
	path := filepath.Join(e.Dir, artifactName(report, "csv"))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	for _, line := range table(report) {
		if len(line) == 0 {
			line = []string{""}
		}
		if err := w.Write(line); err != nil {
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return path, nil
}
