package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

// Match is the outcome of the first active rule whose conditions all hold.
type Match struct {
	Rule              docModel.Rule
	Category          string
	TargetPath        string
	SuggestedFilename string
	Tags              []string
	Confidence        float64
	// Evaluated counts the rules examined, the matching one included.
	Evaluated int
}

type Engine struct {
	store  docModel.RuleStore
	logger *logger_i.Logger

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

func NewEngine(store docModel.RuleStore) *Engine {
	return &Engine{
		store:    store,
		logger:   logger_i.NewLogger("Rules Engine"),
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Classify loads the active rules and returns the first match. ok is false when no rule matches.
func (e *Engine) Classify(ctx context.Context, doc docModel.Document) (Match, bool, error) {
	rules, err := e.store.ListActiveRules(ctx)
	if err != nil {
		return Match{}, false, fmt.Errorf("loading active rules: %w", err)
	}
	m, ok := e.Evaluate(rules, doc)
	return m, ok, nil
}

// Evaluate walks rules in the given order and stops at the first full match.
func (e *Engine) Evaluate(rules []docModel.Rule, doc docModel.Document) (Match, bool) {
	for i, rule := range rules {
		if !rule.Active {
			continue
		}
		if !e.matches(rule.Conditions, doc) {
			continue
		}
		e.logger.Debug("rule matched", "ruleId", rule.Id, "rule", rule.Name, "priority", rule.Priority, "documentId", doc.Id)
		return Match{
			Rule:              rule,
			Category:          rule.Actions.Category,
			TargetPath:        rule.Actions.TargetPath,
			SuggestedFilename: rule.Actions.SuggestedFilename,
			Tags:              rule.Actions.Tags,
			Confidence:        1.0,
			Evaluated:         i + 1,
		}, true
	}
	return Match{}, false
}

func (e *Engine) matches(c docModel.Conditions, doc docModel.Document) bool {
	if c.FilenameRegex != "" {
		re, err := e.compile(c.FilenameRegex)
		if err != nil {
			e.logger.Warn("invalid filename_regex, treating as no match", "pattern", c.FilenameRegex, "error", err)
			return false
		}
		if !re.MatchString(doc.OriginalFilename) {
			return false
		}
	}

	if c.MimeType != "" && doc.MimeType != c.MimeType {
		return false
	}

	if c.MimeTypeContains != "" {
		if doc.MimeType == "" || !strings.Contains(strings.ToLower(doc.MimeType), strings.ToLower(c.MimeTypeContains)) {
			return false
		}
	}

	if c.FileSizeMin != nil && (doc.Size == nil || *doc.Size < *c.FileSizeMin) {
		return false
	}
	if c.FileSizeMax != nil && (doc.Size == nil || *doc.Size > *c.FileSizeMax) {
		return false
	}

	if c.TextContains != "" {
		if doc.ExtractedText == "" || !strings.Contains(strings.ToLower(doc.ExtractedText), strings.ToLower(c.TextContains)) {
			return false
		}
	}
	return true
}

func (e *Engine) compile(pattern string) (*regexp.Regexp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if re, ok := e.patterns[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	e.patterns[pattern] = re
	return re, nil
}
