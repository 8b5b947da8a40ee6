package ptrace

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// This matches user_regs_struct (64bit variant) defined in <sys/user.h>
type UserRegs = unix.PtraceRegs

// This matches user_fpregs_struct (64bit variant) defined in <sys/user.h>
type UserFPRegs struct {
	Cwd      uint16 // Control
	Swd      uint16 // Status
	Ftw      uint16 // Tag
	Fop      uint16 // Last instruction opcode
	Rip      uint64 // Instruction pointer
	Rdp      uint64 // Data pointer
	Mxcsr    uint32 // MXCSR register state
	MxcrMask uint32 // MXCR mask

	// NOTE: c's st_space and xmm_space are defined as uint32 arrays.  We use
	// uint64 arrays here to simplify 128-bit value handling.
	StSpace  [16]uint64 // 8*16 bytes for each FP-reg = 128 bytes
	XmmSpace [32]uint64 // 16*16 bytes for each XMM-reg = 256 bytes

	Padding [24]uint32
}

// This matches user (64bit variant) defined in <sys/user.h>.  Register
// snapshot offsets are derived from this struct's field layout; the two
// must always agree.
type User struct {
	Regs       UserRegs
	UFPValid   int
	I387       UserFPRegs
	UTSize     uint64
	UDSize     uint64
	USSize     uint64
	StartCode  uint64
	StartStack uint64
	Signal     int64
	Reserved   int
	UAr0       uintptr // struct user_regs_struct*
	UFPState   uintptr // struct user_fpregs_struct*
	Magic      uint64
	UComm      [32]byte
	UDebugReg  [8]uint64
}

func ptrace(request int, pid int, addr uintptr, data uintptr) error {
	_, _, err := syscall.Syscall6(
		unix.SYS_PTRACE,
		uintptr(request),
		uintptr(pid),
		addr,
		data,
		0,
		0)
	if err == 0 {
		return nil
	}
	return err
}

func ptracePtr(request int, pid int, addr uintptr, data unsafe.Pointer) error {
	return ptrace(request, pid, addr, uintptr(data))
}

// x/sys/unix has no PTRACE_GETFPREGS / PTRACE_SETFPREGS wrappers, hence the
// raw Syscall6 calls.
func getFPRegs(pid int, out *UserFPRegs) error {
	return ptracePtr(unix.PTRACE_GETFPREGS, pid, 0, unsafe.Pointer(out))
}

func setFPRegs(pid int, in *UserFPRegs) error {
	return ptracePtr(unix.PTRACE_SETFPREGS, pid, 0, unsafe.Pointer(in))
}

func peekUserArea(pid int, offset uintptr) (uintptr, error) {
	// Since we're issuing Syscall6 directly, we need to pass in a valid output
	// pointer.  See "C library/kernel differences" in ptrace man(2) page for
	// detail.
	data := uintptr(0)
	err := ptracePtr(unix.PTRACE_PEEKUSR, pid, offset, unsafe.Pointer(&data))
	return data, err
}

func pokeUserArea(pid int, offset uintptr, data uintptr) error {
	return ptrace(unix.PTRACE_POKEUSR, pid, offset, data)
}
