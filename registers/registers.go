package registers

import (
	"encoding/binary"
	"fmt"

	"github.com/pattyshack/sdb/bit"
	"github.com/pattyshack/sdb/ptrace"
)

// RegisterSizeError indicates a write value wider than the destination
// register.
type RegisterSizeError struct {
	Name         string
	RegisterSize uintptr
	ValueSize    uintptr
}

func (err RegisterSizeError) Error() string {
	return fmt.Sprintf(
		"value size (%d) exceeds register (%s) size (%d)",
		err.ValueSize,
		err.Name,
		err.RegisterSize)
}

// UserAreaWriter flushes modified register state back to the tracee.  A
// whole fpregs block is written at once; everything else goes through
// 8-byte aligned user area words.
type UserAreaWriter interface {
	WriteUserArea(offset uintptr, word uint64) error
	WriteFloatingPointRegisters(fpRegs *ptrace.UserFPRegs) error
}

// Registers holds a byte-addressable snapshot of the tracee's user area.
// Reads decode the snapshot directly; writes patch the snapshot first, then
// flush the affected block through the writer.
type Registers struct {
	data ptrace.User
}

func (regs *Registers) SetGeneralRegisters(gpr *ptrace.UserRegs) {
	regs.data.Regs = *gpr
}

func (regs *Registers) SetFloatingPointRegisters(fpr *ptrace.UserFPRegs) {
	regs.data.I387 = *fpr
}

func (regs *Registers) SetDebugRegister(idx int, value uint64) {
	regs.data.UDebugReg[idx] = value
}

// This always returns Uint8 / Uint16 / Uint32 / Uint64 / Float64 / Byte64 /
// Byte128 depending on the register's format and size.
func (regs *Registers) Read(info Info) Value {
	data := bit.AsBytes(&regs.data)[info.Offset : info.Offset+info.Size]

	switch info.Format {
	case UintFormat:
		switch info.Size {
		case 1:
			return U8(data[0])
		case 2:
			return U16(binary.NativeEndian.Uint16(data))
		case 4:
			return U32(binary.NativeEndian.Uint32(data))
		case 8:
			return U64(binary.NativeEndian.Uint64(data))
		}
	case DoubleFloatFormat:
		return Float64(bit.FromBytes[float64](data))
	case LongDoubleFormat:
		// Represented as a raw block since go has no 80-bit float type.
		return Byte128(bit.FromBytes[bit.Byte128](data))
	case VectorFormat:
		switch info.Size {
		case 8:
			return Byte64(bit.FromBytes[bit.Byte64](data))
		case 16:
			return Byte128(bit.FromBytes[bit.Byte128](data))
		}
	}

	panic(fmt.Sprintf("invalid register: %#v", info))
}

func (regs *Registers) ReadById(id Id) Value {
	return regs.Read(ById(id))
}

// widen converts value into the register's representation, filling a
// maximum-width buffer:
// - float value, floating point destination format: widen to float64 bits
// - signed value, uint destination format: sign extend to the register size
// - everything else: byte copy, zero extended
func widen(info Info, value Value) bit.Byte128 {
	if value.IsFloat() &&
		(info.Format == DoubleFloatFormat || info.Format == LongDoubleFormat) {

		f64 := value.ToFloat64()
		return bit.ToByte128(bit.AsBytes(&f64))
	}

	if value.IsSigned() && info.Format == UintFormat {
		extended := value.ToInt64()

		buffer := bit.Byte128{}
		binary.NativeEndian.PutUint64(buffer[:8], uint64(extended))
		if extended < 0 {
			for i := 8; i < 16; i++ {
				buffer[i] = 0xff
			}
		}
		return buffer
	}

	return bit.ToByte128(value.ToBytes())
}

// Write validates and widens value, patches the snapshot at the register's
// offset, then flushes the modified block back through writer.
func (regs *Registers) Write(
	writer UserAreaWriter,
	info Info,
	value Value,
) error {
	// dr4 and dr5 are not real registers
	// https://en.wikipedia.org/wiki/X86_debug_register
	if info.Id == Dr4 || info.Id == Dr5 {
		return fmt.Errorf("cannot set %s.  register is read-only", info.Name)
	}

	if value.Size() > info.Size {
		return RegisterSizeError{
			Name:         info.Name,
			RegisterSize: info.Size,
			ValueSize:    value.Size(),
		}
	}

	widened := widen(info, value)
	copy(
		bit.AsBytes(&regs.data)[info.Offset:info.Offset+info.Size],
		widened[:info.Size])

	if info.Class == FloatingPointClass {
		return writer.WriteFloatingPointRegisters(&regs.data.I387)
	}

	// Read-modify-write through the snapshot: POKEUSER only accepts 8-byte
	// aligned offsets, so flush the full word containing the register.
	alignedOffset := info.Offset &^ 7
	word := binary.NativeEndian.Uint64(
		bit.AsBytes(&regs.data)[alignedOffset : alignedOffset+8])

	return writer.WriteUserArea(alignedOffset, word)
}

func (regs *Registers) WriteById(
	writer UserAreaWriter,
	id Id,
	value Value,
) error {
	return regs.Write(writer, ById(id), value)
}
