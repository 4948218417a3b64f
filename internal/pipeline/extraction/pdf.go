package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dslipak/pdf"
)

func (e *Extractor) extractPDF(ctx context.Context, rel string) (Result, error) {
	f, err := e.sandbox.Open(rel)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("stat pdf: %w", err)
	}

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		e.logger.Error("failed opening of pdf file", "path", rel, "error", err)
		return Result{}, fmt.Errorf("PDF extraction failed: %w", err)
	}

	numPages := reader.NumPage()
	e.logger.Debug("extractPDF", "number of pages", numPages)

	var parts []string
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := e.protectExtract(page)
		if err != nil {
			// a broken page should not lose the rest of the document
			e.logger.Warn("error parsing page content", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(content) != "" {
			parts = append(parts, content)
		}
	}

	return Result{
		Text:      strings.Join(parts, "\n\n"),
		PageCount: numPages,
		Method:    MethodPDF,
	}, nil
}

// protectExtract bounds a single page: some malformed content streams never terminate.
func (e *Extractor) protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("page extraction panicked: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(e.pageTimeout):
		return "", errors.New("timeout")
	}
}
