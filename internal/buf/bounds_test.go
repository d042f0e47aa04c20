package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestAddU32(t *testing.T) {
	if sum, ok := AddU32(4083, 2000); !ok || sum != 6083 {
		t.Fatalf("AddU32(4083,2000)=%d,%v want 6083,true", sum, ok)
	}
	if _, ok := AddU32(math.MaxUint32, 1); ok {
		t.Fatalf("expected overflow past MaxUint32")
	}
	if sum, ok := AddU32(math.MaxUint32-1, 1); !ok || sum != math.MaxUint32 {
		t.Fatalf("AddU32 at the edge = %d,%v", sum, ok)
	}
	if _, ok := AddU32(1, -1); ok {
		t.Fatalf("negative counts must be rejected")
	}
}

func TestSlice(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if _, ok := Slice(data, 5, 0); !ok {
		t.Fatalf("Slice should allow an empty range at the end")
	}

	if _, ok := Slice(data, -1, 1); ok {
		t.Fatalf("Slice should reject negative offset")
	}
	if _, ok := Slice(data, 1, -1); ok {
		t.Fatalf("Slice should reject negative length")
	}
}
