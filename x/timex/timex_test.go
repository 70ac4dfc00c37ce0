package timex

import (
	"testing"
	"time"
)

func TestCounts(t *testing.T) {
	if got := Counts(1750*time.Millisecond, 1000); got != 1750 {
		t.Fatalf("Counts = %d, want 1750", got)
	}
	if got := Counts(2*time.Second, 32768); got != 65536 {
		t.Fatalf("Counts = %d, want 65536", got)
	}
	if Counts(time.Second, 0) != 0 {
		t.Fatalf("hz=0 must yield 0")
	}
	if got := FromCounts(250, 1000); got != 250*time.Millisecond {
		t.Fatalf("FromCounts = %v", got)
	}
}
