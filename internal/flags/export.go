package flags

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Flags"

var exportHeaders = []string{"ID", "Created", "Title", "Severity", "Status", "Risk", "Category", "Evidence", "AI Summary"}

// WriteXLSX writes one row per flag, in the order given.
func WriteXLSX(w io.Writer, list []Flag) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	for i, h := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}

	for i, fl := range list {
		evidence := make([]string, 0, len(fl.Evidence))
		for _, ev := range fl.Evidence {
			evidence = append(evidence, fmt.Sprintf("%s: %s", ev.Type, ev.Detail))
		}
		row := []any{
			fl.ID.String(),
			fl.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			fl.Title,
			string(fl.Severity),
			string(fl.Status),
			fl.RiskCategory,
			fl.Category,
			strings.Join(evidence, "\n"),
			fl.AISummary,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
