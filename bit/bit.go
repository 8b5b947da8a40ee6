// Package bit reinterprets typed values as raw bytes and back. Every
// unsafe cast in the module lives here so the hazard is auditable in one
// place; callers never inline their own pointer casts.
package bit

import (
	"unsafe"
)

// Fixed-width buffers matching the two widest register representations.
type (
	Byte64  = [8]byte
	Byte128 = [16]byte
)

// AsBytes exposes v's memory as a byte slice. The slice aliases v and is
// only valid while v is reachable; mutations through the slice mutate v.
func AsBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// FromBytes reassembles a T from the leading bytes of data, preserving the
// exact bit pattern. data must hold at least unsafe.Sizeof(T) bytes.
func FromBytes[T any](data []byte) T {
	var ret T

	size := unsafe.Sizeof(ret)
	if uintptr(len(data)) < size {
		panic("should never happen: buffer narrower than target type")
	}

	copy(AsBytes(&ret), data[:size])
	return ret
}

// ToByte128 zero-extends data into a fixed maximum-width buffer.
func ToByte128(data []byte) Byte128 {
	if len(data) > 16 {
		panic("should never happen: value wider than 16 bytes")
	}

	ret := Byte128{}
	copy(ret[:], data)
	return ret
}
