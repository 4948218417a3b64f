package docModel

import (
	"context"
	"errors"
	"time"
)

type DocStatus string

const (
	StatusIngested    DocStatus = "INGESTED"
	StatusAnalyzing   DocStatus = "ANALYZING"
	StatusAnalyzed    DocStatus = "ANALYZED"
	StatusNeedsReview DocStatus = "NEEDS_REVIEW"
	StatusApproved    DocStatus = "APPROVED"
	StatusCommitted   DocStatus = "COMMITTED"
	StatusError       DocStatus = "ERROR"
	StatusDuplicate   DocStatus = "DUPLICATE"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDuplicateHash    = errors.New("document with this content hash already exists")
	ErrRuleNotFound     = errors.New("rule not found")
)

var statusRank = map[DocStatus]int{
	StatusIngested:    0,
	StatusAnalyzing:   1,
	StatusAnalyzed:    2,
	StatusNeedsReview: 2,
	StatusApproved:    3,
	StatusCommitted:   3,
	StatusError:       3,
	StatusDuplicate:   3,
}

func (s DocStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// AdvanceTo returns next only when it moves the lifecycle forward, otherwise s.
func (s DocStatus) AdvanceTo(next DocStatus) DocStatus {
	if statusRank[next] > statusRank[s] {
		return next
	}
	return s
}

// Reclassify behaves like AdvanceTo but may also swap between ANALYZED and NEEDS_REVIEW.
func (s DocStatus) Reclassify(next DocStatus) DocStatus {
	if statusRank[next] == statusRank[s] && statusRank[s] == statusRank[StatusAnalyzed] {
		return next
	}
	return s.AdvanceTo(next)
}

var lifecycle = []DocStatus{
	StatusIngested, StatusAnalyzing, StatusAnalyzed, StatusNeedsReview,
	StatusApproved, StatusCommitted, StatusError, StatusDuplicate,
}

// AdvancesFrom lists the statuses that AdvanceTo(s) moves to s.
func (s DocStatus) AdvancesFrom() []DocStatus {
	var from []DocStatus
	for _, current := range lifecycle {
		if current != s && current.AdvanceTo(s) == s {
			from = append(from, current)
		}
	}
	return from
}

// ReclassifiesFrom lists the statuses that Reclassify(s) moves to s.
func (s DocStatus) ReclassifiesFrom() []DocStatus {
	var from []DocStatus
	for _, current := range lifecycle {
		if current != s && current.Reclassify(s) == s {
			from = append(from, current)
		}
	}
	return from
}

// Reviewable reports whether a human decision may be applied.
func (s DocStatus) Reviewable() bool {
	return s == StatusAnalyzed || s == StatusNeedsReview
}

type Document struct {
	Id               int64     `json:"id"`
	SHA256           string    `json:"sha256"`
	OriginalFilename string    `json:"original_filename"`
	InboxPath        string    `json:"inbox_path"`
	IngestedPath     string    `json:"ingested_path"`
	MimeType         string    `json:"mime_type,omitempty"`
	Size             *int64    `json:"size,omitempty"`
	Status           DocStatus `json:"status"`

	ExtractedText string `json:"extracted_text,omitempty"`
	PageCount     *int   `json:"page_count,omitempty"`

	Category            string               `json:"category,omitempty"`
	SuggestedFilename   string               `json:"suggested_filename,omitempty"`
	SuggestedTargetPath string               `json:"suggested_target_path,omitempty"`
	Confidence          *float64             `json:"confidence,omitempty"`
	Trace               *ClassificationTrace `json:"classification_trace,omitempty"`

	UserCategory   string `json:"user_category,omitempty"`
	UserFilename   string `json:"user_filename,omitempty"`
	UserTargetPath string `json:"user_target_path,omitempty"`

	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AnalyzedAt   *time.Time `json:"analyzed_at,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
}

// Classification holds the columns written by the classify stage. Status is the
// target, applied only where Reclassify allows it.
type Classification struct {
	Category            string
	SuggestedFilename   string
	SuggestedTargetPath string
	Confidence          float64
	Trace               *ClassificationTrace
	Status              DocStatus
	AnalyzedAt          time.Time
}

type Chunk struct {
	Id            int64  `json:"id"`
	DocumentId    int64  `json:"document_id"`
	Index         int    `json:"chunk_index"`
	Text          string `json:"text"`
	TokenEstimate int    `json:"token_estimate"`
	VectorPointId string `json:"vector_point_id,omitempty"`
}

type TraceMethod string

const (
	TraceMethodRule     TraceMethod = "rule"
	TraceMethodModel    TraceMethod = "model"
	TraceMethodFallback TraceMethod = "fallback"
)

type ClassificationTrace struct {
	Method      TraceMethod `json:"method"`
	RuleId      int64       `json:"rule_id,omitempty"`
	RuleName    string      `json:"rule_name,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Provider    string      `json:"provider,omitempty"`
	Reasoning   string      `json:"reasoning,omitempty"`
	RawResponse string      `json:"raw_response,omitempty"`
}

type Rule struct {
	Id         int64      `json:"id"`
	Name       string     `json:"name"`
	Priority   int        `json:"priority"`
	Active     bool       `json:"active"`
	Conditions Conditions `json:"conditions"`
	Actions    Actions    `json:"actions"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Conditions are ANDed. Unset fields do not participate.
type Conditions struct {
	FilenameRegex    string `json:"filename_regex,omitempty"`
	MimeType         string `json:"mime_type,omitempty"`
	MimeTypeContains string `json:"mime_type_contains,omitempty"`
	FileSizeMin      *int64 `json:"file_size_min,omitempty"`
	FileSizeMax      *int64 `json:"file_size_max,omitempty"`
	TextContains     string `json:"text_contains,omitempty"`
}

type Actions struct {
	Category          string   `json:"category,omitempty"`
	TargetPath        string   `json:"target_path,omitempty"`
	SuggestedFilename string   `json:"suggested_filename,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

type DocumentStore interface {
	// CreateDocument returns ErrDuplicateHash when the content hash is already stored.
	CreateDocument(ctx context.Context, doc Document) (int64, error)
	GetDocument(ctx context.Context, id int64) (Document, error)
	GetDocumentBySHA(ctx context.Context, sha256 string) (Document, error)
	ListDocuments(ctx context.Context, status DocStatus, limit, offset int) ([]Document, error)
	UpdateDocument(ctx context.Context, doc Document) error
	// AdvanceStatus moves the stored status forward to status and reports whether it changed.
	AdvanceStatus(ctx context.Context, id int64, status DocStatus) (bool, error)
	// SetExtraction stores the text, clears the error and advances the status to ANALYZING.
	SetExtraction(ctx context.Context, id int64, text string, pageCount int) error
	SetErrorMessage(ctx context.Context, id int64, message string) error
	SetClassification(ctx context.Context, id int64, c Classification) error
	ReplaceChunks(ctx context.Context, documentId int64, chunks []Chunk) error
	ListChunks(ctx context.Context, documentId int64) ([]Chunk, error)
	SetChunkVectorPoint(ctx context.Context, chunkId int64, pointId string) error
	Ping(ctx context.Context) error
}

type RuleStore interface {
	ListActiveRules(ctx context.Context) ([]Rule, error)
	ListRules(ctx context.Context) ([]Rule, error)
	SaveRule(ctx context.Context, rule Rule) (int64, error)
	SetRuleActive(ctx context.Context, id int64, active bool) error
}
