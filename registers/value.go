package registers

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/pattyshack/sdb/bit"
)

// Valid types:
//
// 8-bit register: Uint[uint8], Int[int8]
// 16-bit register: Uint[uint16], Int[int16]
// 32-bit register: Uint[uint32], Int[uint32], Float32
// 64-bit register: Uint[uint64], Int[int64], Float64, Byte64
// 128-bit (floating point / vector) register: Byte128, Float32, Float64
//
// uint is zero extended, int is sign extended, float is widened to float64
// bits when written to a floating point destination.
type Value interface {
	Size() uintptr

	// IsFloat indicates float widening applies; IsSigned indicates integer
	// sign extension applies.  Both are false for raw byte blocks.
	IsFloat() bool
	IsSigned() bool

	ToBytes() []byte
	ToUint64() uint64
	ToInt64() int64
	ToFloat64() float64

	String() string
}

type Uint[T uint8 | uint16 | uint32 | uint64] struct {
	Value T
}

func (u Uint[T]) Size() uintptr {
	return unsafe.Sizeof(u.Value)
}

func (Uint[T]) IsFloat() bool {
	return false
}

func (Uint[T]) IsSigned() bool {
	return false
}

func (u Uint[T]) ToBytes() []byte {
	bytes := make([]byte, u.Size())

	_, err := binary.Encode(bytes, binary.LittleEndian, u.Value)
	if err != nil {
		panic(err)
	}

	return bytes
}

func (u Uint[T]) ToUint64() uint64 {
	return uint64(u.Value)
}

func (u Uint[T]) ToInt64() int64 {
	return int64(u.Value)
}

func (u Uint[T]) ToFloat64() float64 {
	return float64(u.Value)
}

func (u Uint[T]) String() string {
	return fmt.Sprintf(fmt.Sprintf("0x%%0%dx", u.Size()*2), u.Value)
}

type Uint8 = Uint[uint8]

func U8(v uint8) Value {
	return Uint8{
		Value: v,
	}
}

type Uint16 = Uint[uint16]

func U16(v uint16) Value {
	return Uint16{
		Value: v,
	}
}

type Uint32 = Uint[uint32]

func U32(v uint32) Value {
	return Uint32{
		Value: v,
	}
}

type Uint64 = Uint[uint64]

func U64(v uint64) Value {
	return Uint64{
		Value: v,
	}
}

type Int[T int8 | int16 | int32 | int64] struct {
	Value T
}

func (i Int[T]) Size() uintptr {
	return unsafe.Sizeof(i.Value)
}

func (Int[T]) IsFloat() bool {
	return false
}

func (Int[T]) IsSigned() bool {
	return true
}

func (i Int[T]) ToBytes() []byte {
	bytes := make([]byte, i.Size())

	_, err := binary.Encode(bytes, binary.LittleEndian, i.Value)
	if err != nil {
		panic(err)
	}

	return bytes
}

func (i Int[T]) ToUint64() uint64 {
	return uint64(int64(i.Value))
}

func (i Int[T]) ToInt64() int64 {
	return int64(i.Value)
}

func (i Int[T]) ToFloat64() float64 {
	return float64(i.Value)
}

func (i Int[T]) String() string {
	return fmt.Sprintf(fmt.Sprintf("0x%%0%dx", i.Size()*2), i.Value)
}

type Int8 = Int[int8]

func I8(v int8) Value {
	return Int8{
		Value: v,
	}
}

type Int16 = Int[int16]

func I16(v int16) Value {
	return Int16{
		Value: v,
	}
}

type Int32 = Int[int32]

func I32(v int32) Value {
	return Int32{
		Value: v,
	}
}

type Int64 = Int[int64]

func I64(v int64) Value {
	return Int64{
		Value: v,
	}
}

type Float32 float32

func (Float32) Size() uintptr {
	return 4
}

func (Float32) IsFloat() bool {
	return true
}

func (Float32) IsSigned() bool {
	return false
}

func (f Float32) ToBytes() []byte {
	bytes := make([]byte, 4)

	_, err := binary.Encode(bytes, binary.LittleEndian, f)
	if err != nil {
		panic(err)
	}

	return bytes
}

func (f Float32) ToUint64() uint64 {
	return uint64(math.Float32bits(float32(f)))
}

func (f Float32) ToInt64() int64 {
	return int64(f.ToUint64())
}

func (f Float32) ToFloat64() float64 {
	return float64(f)
}

func (f Float32) String() string {
	return fmt.Sprintf("f:%f", f)
}

func F32(v float32) Value {
	return Float32(v)
}

type Float64 float64

func (Float64) Size() uintptr {
	return 8
}

func (Float64) IsFloat() bool {
	return true
}

func (Float64) IsSigned() bool {
	return false
}

func (f Float64) ToBytes() []byte {
	bytes := make([]byte, 8)

	_, err := binary.Encode(bytes, binary.LittleEndian, f)
	if err != nil {
		panic(err)
	}

	return bytes
}

func (f Float64) ToUint64() uint64 {
	return math.Float64bits(float64(f))
}

func (f Float64) ToInt64() int64 {
	return int64(f.ToUint64())
}

func (f Float64) ToFloat64() float64 {
	return float64(f)
}

func (f Float64) String() string {
	return fmt.Sprintf("d:%f", f)
}

func F64(v float64) Value {
	return Float64(v)
}

// Raw 8-byte block (little endian), used by 64-bit vector registers.
type Byte64 bit.Byte64

func (Byte64) Size() uintptr {
	return 8
}

func (Byte64) IsFloat() bool {
	return false
}

func (Byte64) IsSigned() bool {
	return false
}

func (b Byte64) ToBytes() []byte {
	return b[:]
}

func (b Byte64) ToUint64() uint64 {
	return binary.LittleEndian.Uint64(b[:])
}

func (b Byte64) ToInt64() int64 {
	return int64(b.ToUint64())
}

func (b Byte64) ToFloat64() float64 {
	return math.Float64frombits(b.ToUint64())
}

func (b Byte64) String() string {
	return fmt.Sprintf("0x%016x", b.ToUint64())
}

func B64(v bit.Byte64) Value {
	return Byte64(v)
}

// Raw 16-byte block (little endian), used by 128-bit floating point / vector
// registers.
type Byte128 bit.Byte128

func (Byte128) Size() uintptr {
	return 16
}

func (Byte128) IsFloat() bool {
	return false
}

func (Byte128) IsSigned() bool {
	return false
}

func (b Byte128) ToBytes() []byte {
	return b[:]
}

func (b Byte128) Low() uint64 {
	return binary.LittleEndian.Uint64(b[:8])
}

func (b Byte128) High() uint64 {
	return binary.LittleEndian.Uint64(b[8:])
}

func (b Byte128) ToUint64() uint64 {
	return b.Low()
}

func (b Byte128) ToInt64() int64 {
	return int64(b.Low())
}

func (b Byte128) ToFloat64() float64 {
	return math.Float64frombits(b.Low())
}

func (b Byte128) String() string {
	return fmt.Sprintf("0x%016x:0x%016x", b.High(), b.Low())
}

func B128(high uint64, low uint64) Byte128 {
	ret := Byte128{}
	binary.LittleEndian.PutUint64(ret[:8], low)
	binary.LittleEndian.PutUint64(ret[8:], high)
	return ret
}
