package survey

import (
	"strings"
	"testing"
)

func TestCatalogSize(t *testing.T) {
	if len(Items) != 50 {
		t.Fatalf("len(Items) = %d, want 50", len(Items))
	}
}

func TestItemIDsSequential(t *testing.T) {
	for i, item := range Items {
		if item.ID != i+1 {
			t.Errorf("item %d has ID %d", i, item.ID)
		}
	}
}

func TestItemsWellFormed(t *testing.T) {
	for _, item := range Items {
		if item.Text == "" {
			t.Errorf("item %d has no text", item.ID)
		}
		if item.Category == "" {
			t.Errorf("item %d has no category", item.ID)
		}
		if len(item.Scale) < 2 {
			t.Errorf("item %d has a degenerate scale: %v", item.ID, item.Scale)
		}
	}
}

func TestAnchorCount(t *testing.T) {
	anchors := Anchors()
	if len(anchors) != 10 {
		t.Fatalf("len(Anchors()) = %d, want 10", len(anchors))
	}
	for _, a := range anchors {
		if !a.Anchor {
			t.Errorf("Anchors() returned non-anchor item %d", a.ID)
		}
	}
}

func TestReverseCodedItems(t *testing.T) {
	var ids []int
	for _, item := range Items {
		if item.ReverseCoded {
			ids = append(ids, item.ID)
		}
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("reverse-coded items = %v, want [2]", ids)
	}
}

func TestPromptTextFormat(t *testing.T) {
	text := PromptText()

	lines := strings.Split(text, "\n")
	if len(lines) != len(Items) {
		t.Fatalf("PromptText has %d lines, want %d", len(lines), len(Items))
	}

	if !strings.HasPrefix(lines[0], "1. [") {
		t.Errorf("first line = %q, want numbered category prefix", lines[0])
	}
	if !strings.Contains(lines[0], "(Scale: ") {
		t.Errorf("first line missing scale: %q", lines[0])
	}
	if !strings.Contains(lines[10], "I feel safe at my summer program") {
		t.Errorf("line 11 = %q, want safety anchor item", lines[10])
	}
	if !strings.Contains(text, "strongly_agree | agree | disagree | strongly_disagree") {
		t.Error("agreement scale not rendered with pipe separators")
	}
}
