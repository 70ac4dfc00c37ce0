package ring

import "testing"

func TestWrapAround(t *testing.T) {
	r := New(4)
	if n := r.Write([]byte("abc")); n != 3 {
		t.Fatalf("Write = %d", n)
	}
	dst := make([]byte, 2)
	if n := r.Read(dst); n != 2 || string(dst) != "ab" {
		t.Fatalf("Read = %d %q", n, dst[:n])
	}
	if n := r.Write([]byte("def")); n != 3 {
		t.Fatalf("Write across wrap = %d", n)
	}
	out := make([]byte, 8)
	n := r.Read(out)
	if string(out[:n]) != "cdef" {
		t.Fatalf("Read across wrap = %q", out[:n])
	}
	if r.Available() != 0 || r.Space() != 4 {
		t.Fatalf("Available=%d Space=%d", r.Available(), r.Space())
	}
}

func TestFullRingDrops(t *testing.T) {
	r := New(2)
	r.Put('x')
	r.Put('y')
	if r.Put('z') {
		t.Fatalf("Put into full ring succeeded")
	}
	if r.Drops() != 1 {
		t.Fatalf("Drops = %d", r.Drops())
	}
	r.Reset()
	if r.Available() != 0 {
		t.Fatalf("Reset kept %d bytes", r.Available())
	}
}

func TestNewRejectsBadSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New(3)
}
