package lumen

import "unsafe"

// AsByteSlice views a single value as its in-memory bytes, without
// copying. The uniform upload paths use it to hand fixed layout
// structs to the GPU queue; the value must stay alive and unchanged
// until the write completed.
func AsByteSlice[T any](value *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(value)), unsafe.Sizeof(*value))
}
