package engine

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"docproc/internal/document"
)

// parseXLSX emits one heading and one table per non-empty sheet.
func parseXLSX(path string, doc *document.Document) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		rows = trimEmptyRows(rows)
		if len(rows) == 0 {
			continue
		}
		doc.Add(document.Item{Kind: document.KindHeading, Level: 2, Text: sheet})
		doc.Add(document.Item{Kind: document.KindTable, Rows: rows})
	}
	return nil
}

func trimEmptyRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, r := range rows {
		empty := true
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, r)
		}
	}
	return out
}
