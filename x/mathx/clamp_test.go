package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(7, 2, 5); got != 5 {
		t.Fatalf("Clamp(7,2,5) = %d", got)
	}
	if got := Clamp(1, 5, 2); got != 2 {
		t.Fatalf("swapped bounds: got %d", got)
	}
	if Min(uint8(3), 4) != 3 || Max(uint8(3), 4) != 4 {
		t.Fatalf("Min/Max")
	}
}

func TestRatio10(t *testing.T) {
	cases := []struct{ n, d, want uint32 }{
		{6, 1, 60},
		{9, 2, 45},
		{12, 3, 40},
		{10, 3, 33},
		{20, 3, 67},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := Ratio10(c.n, c.d); got != c.want {
			t.Errorf("Ratio10(%d,%d) = %d, want %d", c.n, c.d, got, c.want)
		}
	}
}
