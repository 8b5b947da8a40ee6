package registers

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/pattyshack/sdb/ptrace"
)

// The register class determines where the register data is located within
// the user area:
// - GeneralClass / SubGeneralClass -> user::regs (user_regs_struct)
// - FloatingPointClass -> user::i387 (user_fpregs_struct)
// - DebugClass -> user::u_debugreg ([8]uint64)
type Class string

const (
	GeneralClass       = Class("general")
	SubGeneralClass    = Class("sub general")
	FloatingPointClass = Class("floating point")
	DebugClass         = Class("debug")
)

// The register format determines how snapshot bytes decode and which
// widening rule applies on write.
type Format string

const (
	UintFormat        = Format("uint")
	DoubleFloatFormat = Format("double float")
	LongDoubleFormat  = Format("long double")
	VectorFormat      = Format("vector")
)

type Id int

const (
	Rax = Id(iota)
	Rdx
	Rcx
	Rbx
	Rsi
	Rdi
	Rbp
	Rsp
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	Rip
	Eflags
	Cs
	Fs
	Gs
	Ss
	Ds
	Es
	OrigRax

	Eax
	Edx
	Ecx
	Ebx
	Esi
	Edi
	Ebp
	Esp
	R8d
	R9d
	R10d
	R11d
	R12d
	R13d
	R14d
	R15d

	Ax
	Dx
	Cx
	Bx
	Si
	Di
	Bp
	Sp
	R8w
	R9w
	R10w
	R11w
	R12w
	R13w
	R14w
	R15w

	Ah
	Dh
	Ch
	Bh

	Al
	Dl
	Cl
	Bl
	Sil
	Dil
	Bpl
	Spl
	R8b
	R9b
	R10b
	R11b
	R12b
	R13b
	R14b
	R15b

	Fcw
	Fsw
	Ftw
	Fop
	Frip
	Frdp
	Mxcsr
	MxcrMask

	St0
	St1
	St2
	St3
	St4
	St5
	St6
	St7

	Mm0
	Mm1
	Mm2
	Mm3
	Mm4
	Mm5
	Mm6
	Mm7

	Xmm0
	Xmm1
	Xmm2
	Xmm3
	Xmm4
	Xmm5
	Xmm6
	Xmm7
	Xmm8
	Xmm9
	Xmm10
	Xmm11
	Xmm12
	Xmm13
	Xmm14
	Xmm15

	Dr0
	Dr1
	Dr2
	Dr3
	Dr4
	Dr5
	Dr6
	Dr7

	numRegisterIds
)

type Info struct {
	Id

	Name string

	DwarfId int // -1 when the register has no dwarf mapping

	Size uintptr // register size in bytes

	Offset uintptr // byte offset into the ptrace.User image

	Class Class

	Format Format
}

var (
	OrderedInfos []Info

	nameInfos    = map[string]Info{}
	dwarfIdInfos = map[int]Info{}

	ProgramCounter Info
	StackPointer   Info
	FramePointer   Info
)

// ById is total over valid ids and panics on anything else.
func ById(id Id) Info {
	if id < 0 || id >= numRegisterIds {
		panic(fmt.Sprintf("should never happen: invalid register id %d", id))
	}
	return OrderedInfos[id]
}

func ByName(name string) (Info, bool) {
	info, ok := nameInfos[name]
	return info, ok
}

func ByDwarfId(id int) (Info, bool) {
	info, ok := dwarfIdInfos[id]
	return info, ok
}

func (info Info) ParseValue(value string) (Value, error) {
	if strings.HasPrefix(value, "f:") {
		floatValue, err := strconv.ParseFloat(value[2:], 32)
		if err != nil {
			return nil, fmt.Errorf("failed to parse float32 (%s): %w", value[2:], err)
		}

		return F32(float32(floatValue)), nil
	} else if strings.HasPrefix(value, "d:") {
		floatValue, err := strconv.ParseFloat(value[2:], 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse float64 (%s): %w", value[2:], err)
		}

		return F64(floatValue), nil
	} else if strings.HasPrefix(value, "i:") {
		bitSize := int(info.Size * 8)
		if bitSize > 64 {
			bitSize = 64
		}
		intValue, err := strconv.ParseInt(value[2:], 0, bitSize)
		if err != nil {
			return nil, fmt.Errorf("failed to parse int (%s): %w", value[2:], err)
		}

		switch info.Size {
		case 1:
			return I8(int8(intValue)), nil
		case 2:
			return I16(int16(intValue)), nil
		case 4:
			return I32(int32(intValue)), nil
		case 8, 16:
			return I64(intValue), nil
		default:
			panic(fmt.Sprintf("unhandled size %d", info.Size))
		}
	}

	chunks := strings.Split(value, ":")
	if len(chunks) == 2 { // 128-bit high:low pair
		high, err := strconv.ParseUint(chunks[0], 0, 64)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to parse 128-bit high word (%s): %w",
				chunks[0],
				err)
		}

		low, err := strconv.ParseUint(chunks[1], 0, 64)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to parse 128-bit low word (%s): %w",
				chunks[1],
				err)
		}

		return B128(high, low), nil
	}

	bitSize := int(info.Size * 8)
	if bitSize > 64 {
		bitSize = 64
	}

	uintValue, err := strconv.ParseUint(value, 0, bitSize)
	if err != nil {
		return nil, fmt.Errorf("failed to parse uint (%s): %w", value, err)
	}

	switch info.Size {
	case 1:
		return U8(uint8(uintValue)), nil
	case 2:
		return U16(uint16(uintValue)), nil
	case 4:
		return U32(uint32(uintValue)), nil
	case 8, 16:
		return U64(uintValue), nil
	default:
		panic(fmt.Sprintf("unhandled size %d", info.Size))
	}
}

func init() {
	userType := reflect.TypeOf(ptrace.User{})

	offsetOf := func(structType reflect.Type, name string) uintptr {
		field, ok := structType.FieldByName(name)
		if !ok {
			panic("should never happen: no such field: " + name)
		}
		return field.Offset
	}

	regsOffset := offsetOf(userType, "Regs")
	regsType := reflect.TypeOf(ptrace.UserRegs{})

	i387Offset := offsetOf(userType, "I387")
	i387Type := reflect.TypeOf(ptrace.UserFPRegs{})

	debugRegOffset := offsetOf(userType, "UDebugReg")

	add := func(
		name string,
		dwarfId int,
		size uintptr,
		offset uintptr,
		class Class,
		format Format,
	) {
		entry := Info{
			Id:      Id(len(OrderedInfos)),
			Name:    name,
			DwarfId: dwarfId,
			Size:    size,
			Offset:  offset,
			Class:   class,
			Format:  format,
		}

		OrderedInfos = append(OrderedInfos, entry)

		_, ok := nameInfos[name]
		if ok {
			panic("should never happen: duplicate register info: " + name)
		}
		nameInfos[name] = entry

		if dwarfId != -1 {
			_, ok := dwarfIdInfos[dwarfId]
			if ok {
				panic("should never happen: duplicate register info: " + name)
			}
			dwarfIdInfos[dwarfId] = entry
		}
	}

	gprOffset := func(field string) uintptr {
		return regsOffset + offsetOf(regsType, field)
	}

	fprOffset := func(field string) uintptr {
		return i387Offset + offsetOf(i387Type, field)
	}

	dwarfIds := map[string]int{
		"rip":    16,
		"eflags": 49,
		"cs":     51,
		"fs":     54,
		"gs":     55,
		"ss":     52,
		"ds":     53,
		"es":     50,
	}

	names := strings.Split(
		"rax rdx rcx rbx rsi rdi rbp rsp "+
			"r8 r9 r10 r11 r12 r13 r14 r15 "+
			"rip eflags cs fs gs ss ds es",
		" ")

	fieldOf := func(name string) string {
		return strings.ToUpper(name[0:1]) + name[1:]
	}

	for idx, name := range names {
		dwarfId, ok := dwarfIds[name]
		if !ok {
			dwarfId = idx
		}

		add(name, dwarfId, 8, gprOffset(fieldOf(name)), GeneralClass, UintFormat)
	}

	add(
		"orig_rax",
		-1,
		8,
		gprOffset("Orig_rax"),
		GeneralClass,
		UintFormat)

	addSub := func(name string, size uintptr, parent string, isHigh bool) {
		offset := gprOffset(fieldOf(parent))
		if isHigh {
			offset += 1
		}

		add(name, -1, size, offset, SubGeneralClass, UintFormat)
	}

	legacy := names[:8] // rax ... rsp
	newer := names[8:16]

	for _, name := range legacy { // eax, ..., esp
		addSub("e"+name[1:], 4, name, false)
	}
	for _, name := range newer { // r8d, ..., r15d
		addSub(name+"d", 4, name, false)
	}

	for _, name := range legacy { // ax, ..., sp
		addSub(name[1:], 2, name, false)
	}
	for _, name := range newer { // r8w, ..., r15w
		addSub(name+"w", 2, name, false)
	}

	for _, name := range legacy[:4] { // ah, dh, ch, bh
		addSub(name[1:2]+"h", 1, name, true)
	}

	for _, name := range legacy { // al, ..., spl
		if name[2] == 'x' {
			addSub(name[1:2]+"l", 1, name, false)
		} else {
			addSub(name[1:]+"l", 1, name, false)
		}
	}
	for _, name := range newer { // r8b, ..., r15b
		addSub(name+"b", 1, name, false)
	}

	addFpr := func(name string, dwarfId int, size uintptr, field string) {
		add(name, dwarfId, size, fprOffset(field), FloatingPointClass, UintFormat)
	}

	addFpr("fcw", 65, 2, "Cwd")
	addFpr("fsw", 66, 2, "Swd")
	addFpr("ftw", -1, 2, "Ftw")
	addFpr("fop", -1, 2, "Fop")
	addFpr("frip", -1, 8, "Rip")
	addFpr("frdp", -1, 8, "Rdp")
	addFpr("mxcsr", 64, 4, "Mxcsr")
	addFpr("mxcrmask", -1, 4, "MxcrMask")

	stOffset := fprOffset("StSpace")
	xmmOffset := fprOffset("XmmSpace")

	// NOTE: st0, ..., st7 are in reality 10-byte registers, and mm0, ..., mm7
	// are their 8-byte low halves, but each occupies a 16-byte slot in linux's
	// fxsave layout.
	for i := 0; i < 8; i++ { // st0, ..., st7
		add(
			fmt.Sprintf("st%d", i),
			33+i,
			16,
			stOffset+uintptr(16*i),
			FloatingPointClass,
			LongDoubleFormat)
	}

	for i := 0; i < 8; i++ { // mm0, ..., mm7
		add(
			fmt.Sprintf("mm%d", i),
			41+i,
			8,
			stOffset+uintptr(16*i),
			FloatingPointClass,
			VectorFormat)
	}

	for i := 0; i < 16; i++ { // xmm0, ..., xmm15
		add(
			fmt.Sprintf("xmm%d", i),
			17+i,
			16,
			xmmOffset+uintptr(16*i),
			FloatingPointClass,
			VectorFormat)
	}

	for i := 0; i < 8; i++ { // dr0, ..., dr7
		add(
			fmt.Sprintf("dr%d", i),
			-1,
			8,
			debugRegOffset+uintptr(8*i),
			DebugClass,
			UintFormat)
	}

	if len(OrderedInfos) != int(numRegisterIds) {
		panic("should never happen: register table out of sync with ids")
	}

	anchors := map[Id]string{
		Rax:      "rax",
		OrigRax:  "orig_rax",
		Eax:      "eax",
		Ax:       "ax",
		Ah:       "ah",
		Al:       "al",
		Fcw:      "fcw",
		MxcrMask: "mxcrmask",
		St0:      "st0",
		Mm0:      "mm0",
		Xmm0:     "xmm0",
		Dr0:      "dr0",
	}
	for id, name := range anchors {
		if OrderedInfos[id].Name != name {
			panic("should never happen: register table out of sync with ids")
		}
	}

	ProgramCounter = ById(Rip)
	StackPointer = ById(Rsp)
	FramePointer = ById(Rbp)
}
