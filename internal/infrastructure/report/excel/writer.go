package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

const sheetName = "Upload Probe"

// Writer renders the run report as a spreadsheet, one row per document
// outcome. Meant for the operators who review probe runs outside the
// terminal; the JSON report stays the canonical artifact.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Write(_ context.Context, entries []domain.ReportEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create report sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	header := []any{"API Name", "Path", "Outcome", "File Name", "Document Type", "Details"}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "F1", style)
	}

	row := 2
	writeRow := func(values []any) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
		row++
		return nil
	}

	for _, entry := range entries {
		for _, doc := range entry.AcceptedDocuments {
			if err := writeRow([]any{entry.APIName, entry.Path, "accepted", doc.FileName, doc.DocType, ""}); err != nil {
				return fmt.Errorf("write accepted row: %w", err)
			}
		}
		for _, doc := range entry.RejectedDocuments {
			if err := writeRow([]any{entry.APIName, entry.Path, "rejected", doc.FileName, doc.DocType, doc.ErrorMessage}); err != nil {
				return fmt.Errorf("write rejected row: %w", err)
			}
		}
		for _, doc := range entry.SkippedDocuments {
			if err := writeRow([]any{entry.APIName, entry.Path, "skipped", doc.FileName, "", doc.Reason}); err != nil {
				return fmt.Errorf("write skipped row: %w", err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "B", 36); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "D", "F", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save report workbook: %w", err)
	}
	return nil
}
