package sqlStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/smartsort/internal/domain/docModel"
)

const documentColumns = `id, file_sha256, original_filename, inbox_relpath, ingested_relpath, mime_type,
	file_size_bytes, status, extracted_text, page_count, category, suggested_filename,
	suggested_target_path, confidence, classification_trace, user_category, user_filename,
	user_target_path, error_message, created_at, updated_at, analyzed_at, approved_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) CreateDocument(ctx context.Context, doc docModel.Document) (int64, error) {
	now := time.Now().UTC()
	if doc.Status == "" {
		doc.Status = docModel.StatusIngested
	}
	trace, err := marshalTrace(doc.Trace)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (file_sha256, original_filename, inbox_relpath, ingested_relpath, mime_type,
			file_size_bytes, status, extracted_text, page_count, category, suggested_filename,
			suggested_target_path, confidence, classification_trace, user_category, user_filename,
			user_target_path, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.SHA256, doc.OriginalFilename, nullString(doc.InboxPath), nullString(doc.IngestedPath),
		nullString(doc.MimeType), doc.Size, string(doc.Status), nullString(doc.ExtractedText), doc.PageCount,
		nullString(doc.Category), nullString(doc.SuggestedFilename), nullString(doc.SuggestedTargetPath),
		doc.Confidence, trace, nullString(doc.UserCategory), nullString(doc.UserFilename),
		nullString(doc.UserTargetPath), nullString(doc.ErrorMessage), formatTime(now), formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", docModel.ErrDuplicateHash, doc.SHA256)
		}
		return 0, fmt.Errorf("inserting document: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetDocument(ctx context.Context, id int64) (docModel.Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

func (s *Store) GetDocumentBySHA(ctx context.Context, sha256 string) (docModel.Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE file_sha256 = ?", sha256)
	return scanDocument(row)
}

// ListDocuments returns newest first. An empty status lists every document.
func (s *Store) ListDocuments(ctx context.Context, status docModel.DocStatus, limit, offset int) ([]docModel.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + documentColumns + " FROM documents"
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []docModel.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateDocument writes every mutable field. The content hash never changes.
func (s *Store) UpdateDocument(ctx context.Context, doc docModel.Document) error {
	trace, err := marshalTrace(doc.Trace)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET
			original_filename = ?, inbox_relpath = ?, ingested_relpath = ?, mime_type = ?,
			file_size_bytes = ?, status = ?, extracted_text = ?, page_count = ?, category = ?,
			suggested_filename = ?, suggested_target_path = ?, confidence = ?, classification_trace = ?,
			user_category = ?, user_filename = ?, user_target_path = ?, error_message = ?,
			updated_at = ?, analyzed_at = ?, approved_at = ?
		WHERE id = ?
	`, doc.OriginalFilename, nullString(doc.InboxPath), nullString(doc.IngestedPath), nullString(doc.MimeType),
		doc.Size, string(doc.Status), nullString(doc.ExtractedText), doc.PageCount, nullString(doc.Category),
		nullString(doc.SuggestedFilename), nullString(doc.SuggestedTargetPath), doc.Confidence, trace,
		nullString(doc.UserCategory), nullString(doc.UserFilename), nullString(doc.UserTargetPath),
		nullString(doc.ErrorMessage), formatTime(time.Now()), timePtrValue(doc.AnalyzedAt),
		timePtrValue(doc.ApprovedAt), doc.Id)
	if err != nil {
		return fmt.Errorf("updating document %d: %w", doc.Id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", docModel.ErrDocumentNotFound, doc.Id)
	}
	return nil
}

// AdvanceStatus only touches the status column, and only when the stored status ranks below status.
func (s *Store) AdvanceStatus(ctx context.Context, id int64, status docModel.DocStatus) (bool, error) {
	guard, args := statusIn(status.AdvancesFrom())
	args = append([]any{string(status), formatTime(time.Now())}, args...)
	res, err := s.db.ExecContext(ctx, "UPDATE documents SET status = ?, updated_at = ? WHERE "+guard+" AND id = ?",
		append(args, id)...)
	if err != nil {
		return false, fmt.Errorf("advancing status of %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	return false, s.mustExist(ctx, id)
}

func (s *Store) SetExtraction(ctx context.Context, id int64, text string, pageCount int) error {
	guard, args := statusIn(docModel.StatusAnalyzing.AdvancesFrom())
	query := `UPDATE documents SET extracted_text = ?, page_count = ?, error_message = NULL, updated_at = ?,
		status = CASE WHEN ` + guard + ` THEN ? ELSE status END
		WHERE id = ?`
	args = append([]any{nullString(text), pageCount, formatTime(time.Now())}, args...)
	args = append(args, string(docModel.StatusAnalyzing), id)
	return s.execOne(ctx, id, "storing extraction", query, args...)
}

func (s *Store) SetErrorMessage(ctx context.Context, id int64, message string) error {
	return s.execOne(ctx, id, "storing error message",
		"UPDATE documents SET error_message = ?, updated_at = ? WHERE id = ?",
		nullString(message), formatTime(time.Now()), id)
}

// SetClassification writes the classification columns in one statement. The status moves to
// c.Status only where Reclassify would allow it, so reviewed documents keep theirs.
func (s *Store) SetClassification(ctx context.Context, id int64, c docModel.Classification) error {
	trace, err := marshalTrace(c.Trace)
	if err != nil {
		return err
	}
	guard, args := statusIn(c.Status.ReclassifiesFrom())
	query := `UPDATE documents SET category = ?, suggested_filename = ?, suggested_target_path = ?,
		confidence = ?, classification_trace = ?, error_message = NULL, analyzed_at = ?, updated_at = ?,
		status = CASE WHEN ` + guard + ` THEN ? ELSE status END
		WHERE id = ?`
	analyzed := c.AnalyzedAt
	args = append([]any{nullString(c.Category), nullString(c.SuggestedFilename), nullString(c.SuggestedTargetPath),
		c.Confidence, trace, timePtrValue(&analyzed), formatTime(time.Now())}, args...)
	args = append(args, string(c.Status), id)
	return s.execOne(ctx, id, "storing classification", query, args...)
}

// execOne runs an update addressed to a single document and maps a miss to ErrDocumentNotFound.
func (s *Store) execOne(ctx context.Context, id int64, action, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s for %d: %w", action, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", docModel.ErrDocumentNotFound, id)
	}
	return nil
}

func (s *Store) mustExist(ctx context.Context, id int64) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", docModel.ErrDocumentNotFound, id)
	}
	return err
}

// statusIn renders "status IN (...)". An empty set never matches.
func statusIn(statuses []docModel.DocStatus) (string, []any) {
	if len(statuses) == 0 {
		return "0", nil
	}
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}
	return "status IN (?" + strings.Repeat(", ?", len(statuses)-1) + ")", args
}

// ReplaceChunks deletes every chunk of the document and inserts the new set in one transaction.
func (s *Store) ReplaceChunks(ctx context.Context, documentId int64, chunks []docModel.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM document_chunks WHERE document_id = ?", documentId); err != nil {
		return fmt.Errorf("deleting chunks of %d: %w", documentId, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunks (document_id, chunk_index, chunk_text, chunk_tokens, vector_point_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, documentId, chunk.Index, chunk.Text, chunk.TokenEstimate,
			nullString(chunk.VectorPointId), now); err != nil {
			return fmt.Errorf("inserting chunk %d of %d: %w", chunk.Index, documentId, err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListChunks(ctx context.Context, documentId int64) ([]docModel.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, chunk_text, chunk_tokens, vector_point_id
		FROM document_chunks WHERE document_id = ? ORDER BY chunk_index
	`, documentId)
	if err != nil {
		return nil, fmt.Errorf("listing chunks of %d: %w", documentId, err)
	}
	defer rows.Close()

	var chunks []docModel.Chunk
	for rows.Next() {
		var c docModel.Chunk
		var tokens sql.NullInt64
		var point sql.NullString
		if err := rows.Scan(&c.Id, &c.DocumentId, &c.Index, &c.Text, &tokens, &point); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.TokenEstimate = int(tokens.Int64)
		c.VectorPointId = point.String
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *Store) SetChunkVectorPoint(ctx context.Context, chunkId int64, pointId string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE document_chunks SET vector_point_id = ? WHERE id = ?", nullString(pointId), chunkId)
	if err != nil {
		return fmt.Errorf("setting vector point of chunk %d: %w", chunkId, err)
	}
	return nil
}

func scanDocument(row rowScanner) (docModel.Document, error) {
	var doc docModel.Document
	var inbox, ingested, mimeType, text, category, sugName, sugPath, trace sql.NullString
	var userCat, userName, userPath, errMsg, created, updated, analyzed, approved sql.NullString
	var size sql.NullInt64
	var pages sql.NullInt64
	var confidence sql.NullFloat64
	var status string

	err := row.Scan(&doc.Id, &doc.SHA256, &doc.OriginalFilename, &inbox, &ingested, &mimeType,
		&size, &status, &text, &pages, &category, &sugName, &sugPath, &confidence, &trace,
		&userCat, &userName, &userPath, &errMsg, &created, &updated, &analyzed, &approved)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, docModel.ErrDocumentNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("scanning document: %w", err)
	}

	doc.InboxPath = inbox.String
	doc.IngestedPath = ingested.String
	doc.MimeType = mimeType.String
	doc.Status = docModel.DocStatus(status)
	doc.ExtractedText = text.String
	doc.Category = category.String
	doc.SuggestedFilename = sugName.String
	doc.SuggestedTargetPath = sugPath.String
	doc.UserCategory = userCat.String
	doc.UserFilename = userName.String
	doc.UserTargetPath = userPath.String
	doc.ErrorMessage = errMsg.String
	doc.CreatedAt = parseTime(created)
	doc.UpdatedAt = parseTime(updated)
	doc.AnalyzedAt = parseTimePtr(analyzed)
	doc.ApprovedAt = parseTimePtr(approved)

	if size.Valid {
		doc.Size = &size.Int64
	}
	if pages.Valid {
		n := int(pages.Int64)
		doc.PageCount = &n
	}
	if confidence.Valid {
		doc.Confidence = &confidence.Float64
	}
	if trace.Valid && trace.String != "" {
		var t docModel.ClassificationTrace
		if err := json.Unmarshal([]byte(trace.String), &t); err == nil {
			doc.Trace = &t
		}
	}
	return doc, nil
}

func marshalTrace(trace *docModel.ClassificationTrace) (any, error) {
	if trace == nil {
		return nil, nil
	}
	raw, err := json.Marshal(trace)
	if err != nil {
		return nil, fmt.Errorf("marshalling classification trace: %w", err)
	}
	return string(raw), nil
}
