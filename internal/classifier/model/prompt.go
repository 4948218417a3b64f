package model

import (
	"fmt"
	"strings"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/docModel"
)

const promptTemplate = `You are a document classification assistant. Analyze the following document and provide a structured classification.

Document metadata:
- Filename: %s
- MIME type: %s
- File size: %d bytes

Document content preview:
%s

Classify this document and provide:
1. category: a descriptive category (e.g. "Invoice", "Contract", "Report", "Personal Document")
2. suggested_filename: a clean descriptive filename, keep the extension, use underscore_case
3. target_path: relative path under 03_sorted/ (e.g. "Finance/Invoices", "Projects/2024")
4. confidence: your confidence from 0.0 to 1.0
5. tags: up to 5 relevant tags

Output format (JSON only, no explanations):
{
  "category": "Invoice",
  "suggested_filename": "invoice_company_2024_01.pdf",
  "target_path": "Finance/Invoices/2024",
  "confidence": 0.95,
  "tags": ["invoice", "finance", "2024"]
}

Respond with JSON only:`

func BuildPrompt(doc docModel.Document) string {
	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = "unknown"
	}
	var size int64
	if doc.Size != nil {
		size = *doc.Size
	}
	return fmt.Sprintf(promptTemplate, doc.OriginalFilename, mimeType, size, preview(doc.ExtractedText))
}

func preview(text string) string {
	if strings.TrimSpace(text) == "" {
		return "(No text extracted)"
	}
	runes := []rune(text)
	if len(runes) <= config.PromptPreviewChars {
		return text
	}
	return string(runes[:config.PromptPreviewChars]) + config.PromptTruncationMarker
}
