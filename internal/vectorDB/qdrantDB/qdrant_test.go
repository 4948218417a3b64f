package qdrantDB

import (
	"context"
	"strings"
	"testing"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/google/uuid"
)

func TestNewClientWithoutHost(t *testing.T) {
	db, err := NewClient(context.Background(), config.QdrantConfig{})
	if err != nil || db != nil {
		t.Errorf("expected nil client without a host, got %v %v", db, err)
	}
}

func TestPointIDIsStable(t *testing.T) {
	a := PointID(12, 3)
	if a != PointID(12, 3) {
		t.Error("point id must be deterministic")
	}
	if a == PointID(12, 4) || a == PointID(13, 3) {
		t.Error("point ids must differ per document and chunk")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("point id %q is not a uuid: %v", a, err)
	}
}

func TestPreviewCutsOnRunes(t *testing.T) {
	long := strings.Repeat("ü", textPreviewChars+5)
	got := preview(long)
	if len([]rune(got)) != textPreviewChars {
		t.Errorf("preview has %d runes", len([]rune(got)))
	}
	if preview("short") != "short" {
		t.Error("short text must be kept")
	}
}
