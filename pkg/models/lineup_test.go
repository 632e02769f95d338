package models

import "testing"

func TestSinglesIndexRoundTrip(t *testing.T) {
	seen := make(map[int]bool)
	for idx := FirstSinglesIndex; idx <= LastSinglesIndex; idx++ {
		dom := DOMIndex(idx)
		if dom < 0 || dom >= SinglesCount {
			t.Errorf("DOMIndex(%d) = %d, out of range", idx, dom)
		}
		if seen[dom] {
			t.Errorf("DOMIndex(%d) = %d already used", idx, dom)
		}
		seen[dom] = true
		if got := ExcelIndex(dom); got != idx {
			t.Errorf("ExcelIndex(DOMIndex(%d)) = %d", idx, got)
		}
	}
	if len(seen) != 16 {
		t.Errorf("got %d distinct rows, want 16", len(seen))
	}
}

func TestValidSinglesIndex(t *testing.T) {
	tests := []struct {
		idx  int
		want bool
	}{
		{1, false},
		{2, true},
		{10, true},
		{17, true},
		{18, false},
	}
	for _, tt := range tests {
		if got := ValidSinglesIndex(tt.idx); got != tt.want {
			t.Errorf("ValidSinglesIndex(%d) = %v, want %v", tt.idx, got, tt.want)
		}
	}
}

func TestReportWarn(t *testing.T) {
	r := &Report{Saved: true}
	if !r.Complete() {
		t.Fatal("report without warnings should be complete")
	}
	r.Warn("lineup", "#d0 home", "no option for %q", "Jan Novák")
	if r.Complete() {
		t.Error("report with warnings should not be complete")
	}
	want := `[lineup] #d0 home: no option for "Jan Novák"`
	if got := r.Warnings[0].String(); got != want {
		t.Errorf("Warning.String() = %q, want %q", got, want)
	}
}
