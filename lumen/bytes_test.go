package lumen

import (
	"encoding/binary"
	"testing"
	"unsafe"
)

func TestAsByteSliceViewsValueInPlace(t *testing.T) {
	type uniforms struct {
		A uint32
		B float32
	}

	u := uniforms{A: 0xdead_beef, B: 1}
	view := AsByteSlice(&u)

	if len(view) != int(unsafe.Sizeof(u)) {
		t.Fatalf("view length = %d, want %d", len(view), unsafe.Sizeof(u))
	}

	if got := binary.LittleEndian.Uint32(view); got != u.A {
		t.Errorf("first word = %#x, want %#x", got, u.A)
	}

	// the slice aliases the value, writes through it are visible
	u.A = 42
	if got := binary.LittleEndian.Uint32(view); got != 42 {
		t.Errorf("first word after update = %d, want 42", got)
	}
}
