package extraction

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/storage"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

type Method string

const (
	MethodPDF         Method = "pdf"
	MethodText        Method = "text"
	MethodOffice      Method = "office"
	MethodSpreadsheet Method = "spreadsheet"
	MethodFallback    Method = "fallback_text"
)

type Result struct {
	Text      string `json:"-"`
	PageCount int    `json:"page_count"`
	Method    Method `json:"method"`
	Encoding  string `json:"encoding,omitempty"`
}

// Extractor reads files through the sandbox and turns them into plain text.
type Extractor struct {
	sandbox     *storage.Sandbox
	logger      *logger_i.Logger
	pageTimeout time.Duration
}

func NewExtractor(sandbox *storage.Sandbox) *Extractor {
	return &Extractor{
		sandbox:     sandbox,
		logger:      logger_i.NewLogger("Text Extraction"),
		pageTimeout: config.ExtractionTimeout,
	}
}

func (e *Extractor) Extract(ctx context.Context, rel string, mimeType string) (Result, error) {
	kind := detectKind(rel, mimeType)
	e.logger.Debug("extracting", "path", rel, "mime", mimeType, "kind", kind)

	switch kind {
	case MethodPDF:
		return e.extractPDF(ctx, rel)
	case MethodOffice:
		return e.extractOffice(rel)
	case MethodSpreadsheet:
		return e.extractSpreadsheet(rel)
	case MethodText:
		raw, err := e.sandbox.ReadFile(rel)
		if err != nil {
			return Result{}, err
		}
		text, encoding := decodeText(raw)
		return Result{Text: text, PageCount: 1, Method: MethodText, Encoding: encoding}, nil
	default:
		raw, err := e.sandbox.ReadFile(rel)
		if err != nil {
			return Result{}, err
		}
		text, encoding, ok := decodeUnknown(raw)
		if !ok {
			label := mimeType
			if label == "" {
				label = filepath.Ext(rel)
			}
			return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, label)
		}
		return Result{Text: text, PageCount: 1, Method: MethodFallback, Encoding: encoding}, nil
	}
}

func detectKind(rel, mimeType string) Method {
	mt := strings.ToLower(mimeType)
	ext := strings.ToLower(filepath.Ext(rel))

	switch {
	case strings.Contains(mt, "pdf") || ext == ".pdf":
		return MethodPDF
	case strings.Contains(mt, "spreadsheetml") || ext == ".xlsx":
		return MethodSpreadsheet
	case strings.Contains(mt, "wordprocessingml"), strings.Contains(mt, "opendocument.text"),
		strings.Contains(mt, "rtf"), ext == ".docx", ext == ".odt", ext == ".rtf":
		return MethodOffice
	case strings.Contains(mt, "text"), ext == ".txt", ext == ".md", ext == ".log", ext == ".csv":
		return MethodText
	}
	return MethodFallback
}
