package registers

import (
	"math"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"

	"github.com/pattyshack/sdb/bit"
	"github.com/pattyshack/sdb/ptrace"
)

type fakeTarget struct {
	pokes map[uintptr]uint64

	fpWrites int
	lastFP   ptrace.UserFPRegs
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		pokes: map[uintptr]uint64{},
	}
}

func (target *fakeTarget) WriteUserArea(offset uintptr, word uint64) error {
	target.pokes[offset] = word
	return nil
}

func (target *fakeTarget) WriteFloatingPointRegisters(
	fpRegs *ptrace.UserFPRegs,
) error {
	target.fpWrites += 1
	target.lastFP = *fpRegs
	return nil
}

type RegistersSuite struct{}

func TestRegisters(t *testing.T) {
	suite.RunTests(t, &RegistersSuite{})
}

func (RegistersSuite) TestTableShape(t *testing.T) {
	expect.Equal(t, int(numRegisterIds), len(OrderedInfos))
	expect.Equal(t, 125, len(OrderedInfos))

	for idx, info := range OrderedInfos {
		expect.Equal(t, idx, int(info.Id))
		expect.Equal(t, info, ById(info.Id))

		named, ok := ByName(info.Name)
		expect.True(t, ok)
		expect.Equal(t, info, named)
	}
}

func (RegistersSuite) TestKnownOffsets(t *testing.T) {
	// Spot checks against the x86-64 user struct layout.
	rax := ById(Rax)
	expect.Equal(t, 80, rax.Offset)
	expect.Equal(t, 8, rax.Size)
	expect.Equal(t, GeneralClass, rax.Class)

	rsi := ById(Rsi)
	expect.Equal(t, 104, rsi.Offset)

	rip := ById(Rip)
	expect.Equal(t, 128, rip.Offset)

	dr0 := ById(Dr0)
	expect.Equal(t, 848, dr0.Offset)
	expect.Equal(t, DebugClass, dr0.Class)

	// Sub-registers alias their parent's low bytes; high-8 registers sit one
	// byte above.
	eax := ById(Eax)
	expect.Equal(t, rax.Offset, eax.Offset)
	expect.Equal(t, 4, eax.Size)
	expect.Equal(t, SubGeneralClass, eax.Class)

	ah := ById(Ah)
	expect.Equal(t, rax.Offset+1, ah.Offset)
	expect.Equal(t, 1, ah.Size)

	al := ById(Al)
	expect.Equal(t, rax.Offset, al.Offset)

	st0 := ById(St0)
	mm0 := ById(Mm0)
	expect.Equal(t, st0.Offset, mm0.Offset)
	expect.Equal(t, 16, st0.Size)
	expect.Equal(t, 8, mm0.Size)
	expect.Equal(t, LongDoubleFormat, st0.Format)
	expect.Equal(t, VectorFormat, mm0.Format)
}

func (RegistersSuite) TestDwarfIds(t *testing.T) {
	expected := map[int]string{
		0:  "rax",
		1:  "rdx",
		4:  "rsi",
		15: "r15",
		16: "rip",
		49: "eflags",
		64: "mxcsr",
		65: "fcw",
		66: "fsw",
		33: "st0",
		40: "st7",
		41: "mm0",
		17: "xmm0",
		32: "xmm15",
	}

	for dwarfId, name := range expected {
		info, ok := ByDwarfId(dwarfId)
		expect.True(t, ok)
		expect.Equal(t, name, info.Name)
	}

	_, ok := ByDwarfId(-1)
	expect.True(t, !ok)
}

func (RegistersSuite) TestReadGeneralAndSubRegisters(t *testing.T) {
	regs := &Registers{}
	regs.SetGeneralRegisters(&ptrace.UserRegs{
		Rax: 0x1122334455667788,
		Rsi: 0xcafecafe,
	})

	expect.Equal(t, U64(0x1122334455667788), regs.ReadById(Rax))
	expect.Equal(t, U32(0x55667788), regs.ReadById(Eax))
	expect.Equal(t, U16(0x7788), regs.ReadById(Ax))
	expect.Equal(t, U8(0x88), regs.ReadById(Al))
	expect.Equal(t, U8(0x77), regs.ReadById(Ah))

	expect.Equal(t, U64(0xcafecafe), regs.ReadById(Rsi))
}

func (RegistersSuite) TestReadFloatingPointRegisters(t *testing.T) {
	fpr := &ptrace.UserFPRegs{
		Cwd:   0x037f,
		Mxcsr: 0x1f80,
	}
	fpr.StSpace[0] = math.Float64bits(64.125)
	fpr.StSpace[2] = 0xba5eba11
	fpr.XmmSpace[0] = 0x1111111111111111
	fpr.XmmSpace[1] = 0x2222222222222222

	regs := &Registers{}
	regs.SetFloatingPointRegisters(fpr)

	expect.Equal(t, U16(0x037f), regs.ReadById(Fcw))
	expect.Equal(t, U32(0x1f80), regs.ReadById(Mxcsr))

	st0 := regs.ReadById(St0).(Byte128)
	expect.Equal(t, math.Float64bits(64.125), st0.Low())

	mm1 := regs.ReadById(Mm1).(Byte64)
	expect.Equal(t, 0xba5eba11, mm1.ToUint64())

	xmm0 := regs.ReadById(Xmm0).(Byte128)
	expect.Equal(t, 0x1111111111111111, xmm0.Low())
	expect.Equal(t, 0x2222222222222222, xmm0.High())
}

func (RegistersSuite) TestReadDebugRegisters(t *testing.T) {
	regs := &Registers{}
	regs.SetDebugRegister(3, 0xdeadbeef)

	expect.Equal(t, U64(0xdeadbeef), regs.ReadById(Dr3))
	expect.Equal(t, U64(0), regs.ReadById(Dr0))
}

func (RegistersSuite) TestWriteGeneralRegister(t *testing.T) {
	target := newFakeTarget()
	regs := &Registers{}

	err := regs.WriteById(target, Rsi, U32(0xcafecafe))
	expect.Nil(t, err)

	// Zero extended into the full register, flushed as one aligned word.
	expect.Equal(t, U64(0xcafecafe), regs.ReadById(Rsi))
	expect.Equal(t, 0xcafecafe, target.pokes[ById(Rsi).Offset])
	expect.Equal(t, 0, target.fpWrites)
}

func (RegistersSuite) TestWriteSignExtension(t *testing.T) {
	target := newFakeTarget()
	regs := &Registers{}

	err := regs.WriteById(target, Rax, I8(-1))
	expect.Nil(t, err)
	expect.Equal(t, U64(0xffffffffffffffff), regs.ReadById(Rax))

	err = regs.WriteById(target, Rax, I16(-2))
	expect.Nil(t, err)
	expect.Equal(t, U64(0xfffffffffffffffe), regs.ReadById(Rax))

	// Unsigned values of the same bit pattern only zero extend.
	err = regs.WriteById(target, Rax, U8(0xff))
	expect.Nil(t, err)
	expect.Equal(t, U64(0xff), regs.ReadById(Rax))
}

func (RegistersSuite) TestWriteSubRegisterPreservesParent(t *testing.T) {
	target := newFakeTarget()
	regs := &Registers{}
	regs.SetGeneralRegisters(&ptrace.UserRegs{
		Rax: 0x1122334455667788,
	})

	err := regs.WriteById(target, Ah, U8(0xab))
	expect.Nil(t, err)

	// Only the aliased byte changes; the flushed word carries the rest of the
	// parent register unchanged.
	expect.Equal(t, U64(0x112233445566ab88), regs.ReadById(Rax))
	expect.Equal(t, 0x112233445566ab88, target.pokes[ById(Rax).Offset])

	err = regs.WriteById(target, Al, U8(0xcd))
	expect.Nil(t, err)
	expect.Equal(t, U64(0x112233445566abcd), regs.ReadById(Rax))
}

func (RegistersSuite) TestWriteFloatingPointRegisters(t *testing.T) {
	target := newFakeTarget()
	regs := &Registers{}

	err := regs.WriteById(target, St0, F32(64.125))
	expect.Nil(t, err)
	expect.Equal(t, 1, target.fpWrites)
	expect.Equal(t, math.Float64bits(64.125), target.lastFP.StSpace[0])
	expect.Equal(t, 0, len(target.pokes))

	err = regs.WriteById(target, Mm0, B64(bit.Byte64{0x11, 0xba, 0x5e, 0xba}))
	expect.Nil(t, err)
	expect.Equal(t, 2, target.fpWrites)
	expect.Equal(t, 0xba5eba11, target.lastFP.StSpace[0])

	err = regs.WriteById(target, Xmm3, B128(0xb, 0xa))
	expect.Nil(t, err)
	expect.Equal(t, 3, target.fpWrites)
	expect.Equal(t, 0xa, target.lastFP.XmmSpace[6])
	expect.Equal(t, 0xb, target.lastFP.XmmSpace[7])
}

func (RegistersSuite) TestWriteDebugRegister(t *testing.T) {
	target := newFakeTarget()
	regs := &Registers{}

	err := regs.WriteById(target, Dr0, U64(0xdeadbeef))
	expect.Nil(t, err)
	expect.Equal(t, 0xdeadbeef, target.pokes[ById(Dr0).Offset])

	err = regs.WriteById(target, Dr4, U64(1))
	expect.Error(t, err, "register is read-only")

	err = regs.WriteById(target, Dr5, U64(1))
	expect.Error(t, err, "register is read-only")
}

func (RegistersSuite) TestWriteSizeMismatch(t *testing.T) {
	target := newFakeTarget()
	regs := &Registers{}

	err := regs.WriteById(target, Al, U64(1))
	sizeErr, ok := err.(RegisterSizeError)
	expect.True(t, ok)
	expect.Equal(t, "al", sizeErr.Name)
	expect.Equal(t, 1, sizeErr.RegisterSize)
	expect.Equal(t, 8, sizeErr.ValueSize)

	err = regs.WriteById(target, Mm0, B128(1, 1))
	_, ok = err.(RegisterSizeError)
	expect.True(t, ok)

	// Narrower is fine.
	err = regs.WriteById(target, Rax, U8(1))
	expect.Nil(t, err)
}

func (RegistersSuite) TestParseValue(t *testing.T) {
	rax := ById(Rax)
	st0 := ById(St0)
	al := ById(Al)

	value, err := rax.ParseValue("0xcafecafe")
	expect.Nil(t, err)
	expect.Equal(t, U64(0xcafecafe), value)

	value, err = al.ParseValue("i:-1")
	expect.Nil(t, err)
	expect.Equal(t, I8(-1), value)

	value, err = st0.ParseValue("f:1.5")
	expect.Nil(t, err)
	expect.Equal(t, F32(1.5), value)

	value, err = st0.ParseValue("d:64.125")
	expect.Nil(t, err)
	expect.Equal(t, F64(64.125), value)

	value, err = st0.ParseValue("0xb:0xa")
	expect.Nil(t, err)
	expect.Equal(t, Value(B128(0xb, 0xa)), value)

	_, err = al.ParseValue("0x100")
	expect.Error(t, err, "failed to parse uint")

	_, err = al.ParseValue("not a number")
	expect.Error(t, err, "failed to parse uint")
}
