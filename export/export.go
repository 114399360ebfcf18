/*
Package export renders computed payroll reports into shareable artifacts.

The settlement engine hands over a fully computed payroll.Report; this
package only lays it out as a table and writes the file. Two formats are
supported: XLSX (excelize) and CSV. Both produce the same grid:

  Worker | <one column per date, P/H/A> | Present | Half | Total | Advance | Net

followed by a batch total row and the denomination summary.
*/
package export

import (
	"fmt"
	"os"

	"github.com/warp/payroll-engine/payroll"
)

// Format selects the artifact type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat maps a user-supplied string onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatXLSX, FormatCSV:
		return Format(s), nil
	case "":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// New returns an exporter writing artifacts of the given format into dir.
// The directory is created if missing.
func New(format Format, dir string) (payroll.Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}
	switch format {
	case FormatXLSX:
		return &XLSXExporter{Dir: dir}, nil
	case FormatCSV:
		return &CSVExporter{Dir: dir}, nil
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// artifactName builds the file name for a report artifact.
func artifactName(report *payroll.Report, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s",
		sanitize(report.FolderName), report.Start, report.End, ext)
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// table flattens a report into rows of strings shared by both exporters.
func table(report *payroll.Report) [][]string {
	header := []string{"Worker"}
	for _, d := range report.Dates {
		header = append(header, d.String())
	}
	header = append(header, "Present", "Half Day", "Total", "Advance", "Net")

	rows := [][]string{header}
	for _, row := range report.Rows {
		line := []string{row.Name}
		for _, s := range row.Statuses {
			line = append(line, s.Code())
		}
		line = append(line,
			fmt.Sprintf("%d", row.PresentCount),
			fmt.Sprintf("%d", row.HalfDayCount),
			row.TotalPayment.String(),
			row.AdvanceDeducted.String(),
			row.NetPayment.String(),
		)
		if row.AdvanceRemarks != "" {
			line = append(line, row.AdvanceRemarks)
		}
		rows = append(rows, line)
	}

	rows = append(rows,
		[]string{},
		[]string{"Batch Net Total", report.TotalNet.String()},
		[]string{fmt.Sprintf("Notes of %d", payroll.NoteHigh), fmt.Sprintf("%d", report.Denomination.CountHigh)},
		[]string{fmt.Sprintf("Notes of %d", payroll.NoteLow), fmt.Sprintf("%d", report.Denomination.CountLow)},
	)
	return rows
}

// Ensure both exporters satisfy the engine's interface.
var (
	_ payroll.Exporter = (*XLSXExporter)(nil)
	_ payroll.Exporter = (*CSVExporter)(nil)
)
