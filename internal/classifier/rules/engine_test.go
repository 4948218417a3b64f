package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/smartsort/internal/domain/docModel"
)

type MockRuleStore struct {
	OnListActiveRules func(ctx context.Context) ([]docModel.Rule, error)
}

func (m *MockRuleStore) ListActiveRules(ctx context.Context) ([]docModel.Rule, error) {
	if m.OnListActiveRules != nil {
		return m.OnListActiveRules(ctx)
	}
	return nil, nil
}

func (m *MockRuleStore) ListRules(ctx context.Context) ([]docModel.Rule, error) {
	return m.ListActiveRules(ctx)
}

func (m *MockRuleStore) SaveRule(ctx context.Context, rule docModel.Rule) (int64, error) {
	return 0, nil
}

func (m *MockRuleStore) SetRuleActive(ctx context.Context, id int64, active bool) error {
	return nil
}

func size(v int64) *int64 { return &v }

func TestFirstMatchWins(t *testing.T) {
	store := &MockRuleStore{OnListActiveRules: func(ctx context.Context) ([]docModel.Rule, error) {
		return []docModel.Rule{
			{Id: 1, Name: "pdf invoices", Priority: 1, Active: true,
				Conditions: docModel.Conditions{MimeTypeContains: "pdf"},
				Actions:    docModel.Actions{Category: "Invoice"}},
			{Id: 2, Name: "everything", Priority: 2, Active: true,
				Actions: docModel.Actions{Category: "Other"}},
		}, nil
	}}
	engine := NewEngine(store)

	m, ok, err := engine.Classify(context.Background(), docModel.Document{MimeType: "application/pdf"})
	if err != nil || !ok {
		t.Fatalf("expected a match, got ok=%v err=%v", ok, err)
	}
	if m.Category != "Invoice" || m.Confidence != 1.0 {
		t.Errorf("match = %+v", m)
	}
	if m.Evaluated != 1 {
		t.Errorf("evaluated %d rules, the second rule must not be tried", m.Evaluated)
	}

	m, ok, _ = engine.Classify(context.Background(), docModel.Document{MimeType: "text/plain"})
	if !ok || m.Category != "Other" || m.Rule.Id != 2 {
		t.Errorf("catch-all match = %+v ok=%v", m, ok)
	}
}

func TestClassifyStoreError(t *testing.T) {
	engine := NewEngine(&MockRuleStore{OnListActiveRules: func(ctx context.Context) ([]docModel.Rule, error) {
		return nil, errors.New("database is locked")
	}})
	if _, _, err := engine.Classify(context.Background(), docModel.Document{}); err == nil {
		t.Error("expected the store error to surface")
	}
}

func TestConditions(t *testing.T) {
	doc := docModel.Document{
		OriginalFilename: "Rechnung_2024_03.PDF",
		MimeType:         "application/pdf",
		Size:             size(2048),
		ExtractedText:    "Total amount due: 42 EUR",
	}
	noSize := doc
	noSize.Size = nil
	noText := doc
	noText.ExtractedText = ""

	tests := []struct {
		name string
		cond docModel.Conditions
		doc  docModel.Document
		want bool
	}{
		{"empty conditions match everything", docModel.Conditions{}, doc, true},
		{"filename regex is case insensitive", docModel.Conditions{FilenameRegex: `^rechnung_\d{4}`}, doc, true},
		{"filename regex miss", docModel.Conditions{FilenameRegex: `contract`}, doc, false},
		{"invalid regex is no match", docModel.Conditions{FilenameRegex: `([`}, doc, false},
		{"exact mime", docModel.Conditions{MimeType: "application/pdf"}, doc, true},
		{"exact mime is case sensitive", docModel.Conditions{MimeType: "application/PDF"}, doc, false},
		{"mime contains", docModel.Conditions{MimeTypeContains: "PDF"}, doc, true},
		{"size bounds inclusive", docModel.Conditions{FileSizeMin: size(2048), FileSizeMax: size(2048)}, doc, true},
		{"below min", docModel.Conditions{FileSizeMin: size(4096)}, doc, false},
		{"above max", docModel.Conditions{FileSizeMax: size(1024)}, doc, false},
		{"size predicate without size", docModel.Conditions{FileSizeMax: size(1 << 20)}, noSize, false},
		{"text contains", docModel.Conditions{TextContains: "AMOUNT DUE"}, doc, true},
		{"text predicate without text", docModel.Conditions{TextContains: "amount"}, noText, false},
		{"all conditions are ANDed", docModel.Conditions{MimeTypeContains: "pdf", TextContains: "salary"}, doc, false},
	}

	engine := NewEngine(&MockRuleStore{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.matches(tt.cond, tt.doc); got != tt.want {
				t.Errorf("matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateSkipsInactiveAndCopiesActions(t *testing.T) {
	engine := NewEngine(&MockRuleStore{})
	rules := []docModel.Rule{
		{Id: 1, Active: false, Actions: docModel.Actions{Category: "Disabled"}},
		{Id: 2, Active: true, Actions: docModel.Actions{
			Category: "Finance", TargetPath: "Finance/Invoices", SuggestedFilename: "invoice.pdf", Tags: []string{"finance"},
		}},
	}
	m, ok := engine.Evaluate(rules, docModel.Document{})
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Category != "Finance" || m.TargetPath != "Finance/Invoices" || m.SuggestedFilename != "invoice.pdf" || m.Tags[0] != "finance" {
		t.Errorf("actions not applied: %+v", m)
	}
	if m.Evaluated != 2 {
		t.Errorf("evaluated = %d", m.Evaluated)
	}

	if _, ok := engine.Evaluate(nil, docModel.Document{}); ok {
		t.Error("no rules must not match")
	}
}
