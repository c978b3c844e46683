package tracer

import (
	"fmt"
	"testing"
)

func TestHistoryNewestFirst(t *testing.T) {
	h := NewHistory(5)
	for i := 1; i <= 3; i++ {
		h.Add(HistoryEntry{Target: fmt.Sprintf("t%d", i)})
	}

	got := h.Recent(10)
	if len(got) != 3 {
		t.Fatalf("Recent returned %d entries, want 3", len(got))
	}
	if got[0].Target != "t3" || got[2].Target != "t1" {
		t.Errorf("order = [%s, %s, %s], want newest first", got[0].Target, got[1].Target, got[2].Target)
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Add(HistoryEntry{Target: fmt.Sprintf("t%d", i)})
	}

	if h.Size() != 3 {
		t.Errorf("size = %d, want 3", h.Size())
	}
	got := h.Recent(3)
	if got[0].Target != "t5" || got[2].Target != "t3" {
		t.Errorf("kept [%s..%s], want [t5..t3]", got[0].Target, got[2].Target)
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(0) // falls back to default capacity
	if got := h.Recent(5); got != nil {
		t.Errorf("Recent on empty history = %v, want nil", got)
	}
}
