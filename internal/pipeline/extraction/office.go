package extraction

import (
	"fmt"
	"strings"

	"github.com/lu4p/cat"
	"github.com/xuri/excelize/v2"
)

// extractOffice reads .docx, .odt and .rtf files. They carry no reliable page model, so the
// whole document counts as one page.
func (e *Extractor) extractOffice(rel string) (Result, error) {
	abs, err := e.sandbox.Resolve(rel)
	if err != nil {
		return Result{}, err
	}
	if _, err := e.sandbox.Stat(rel); err != nil {
		return Result{}, err
	}

	text, err := cat.File(abs)
	if err != nil {
		e.logger.Error("error extracting content from document", "path", rel, "error", err)
		return Result{}, fmt.Errorf("office extraction failed: %w", err)
	}
	return Result{Text: text, PageCount: 1, Method: MethodOffice}, nil
}

// extractSpreadsheet writes each row tab separated; every sheet counts as a page.
func (e *Extractor) extractSpreadsheet(rel string) (Result, error) {
	f, err := e.sandbox.Open(rel)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	book, err := excelize.OpenReader(f)
	if err != nil {
		return Result{}, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	var buf strings.Builder
	for _, sheet := range sheets {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return Result{}, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
	return Result{Text: strings.TrimSpace(buf.String()), PageCount: len(sheets), Method: MethodSpreadsheet}, nil
}
