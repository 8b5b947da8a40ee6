package sdb

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/pattyshack/sdb/procfs"
	"github.com/pattyshack/sdb/ptrace"
	"github.com/pattyshack/sdb/registers"
)

type Process struct {
	tracer *ptrace.Tracer

	pid int

	// terminateOnDrop: we spawned the process and kill it on Close.
	// isAttached: the process is under trace control.
	terminateOnDrop bool
	isAttached      bool

	state ProcessState

	registers registers.Registers

	logger *logrus.Entry
}

func newProcess(
	tracer *ptrace.Tracer,
	terminateOnDrop bool,
	isAttached bool,
) *Process {
	pid := tracer.Pid()
	return &Process{
		tracer:          tracer,
		pid:             pid,
		terminateOnDrop: terminateOnDrop,
		isAttached:      isAttached,
		state:           Stopped,
		logger:          logrus.WithField("pid", pid),
	}
}

// Attach takes trace control of an already running process.  The process is
// left stopped with its register snapshot populated.
func Attach(pid int) (*Process, error) {
	if pid <= 0 {
		return nil, TraceError{
			Err: fmt.Errorf("invalid pid %d", pid),
		}
	}

	tracer, err := ptrace.AttachToProcess(pid)
	if err != nil {
		return nil, TraceError{Err: err}
	}

	process := newProcess(tracer, false, true)
	process.state = Running // until the attach stop is observed

	_, err = process.WaitOnSignal()
	if err != nil {
		process.Close()
		return nil, err
	}

	process.logger.Trace("attached")
	return process, nil
}

// Launch spawns path.  With trace set, the child requests trace control
// before exec and the returned process is stopped at its exec trap with
// registers populated; without it the child runs freely.  A nil stdout
// inherits this process' stdout.
func Launch(path string, trace bool, stdout *os.File) (*Process, error) {
	cmd := exec.Command(path)

	cmd.Stdout = os.Stdout
	if stdout != nil {
		cmd.Stdout = stdout
	}
	cmd.Stderr = os.Stderr

	var tracer *ptrace.Tracer
	var err error
	if trace {
		tracer, err = ptrace.StartAndAttachToProcess(cmd)
	} else {
		tracer, err = ptrace.StartProcess(cmd)
	}
	if err != nil {
		return nil, classifyLaunchError(err)
	}

	process := newProcess(tracer, true, trace)

	if trace {
		process.state = Running // until the exec trap is observed

		_, err = process.WaitOnSignal()
		if err != nil {
			process.Close()
			return nil, err
		}
	} else {
		process.state = Running
	}

	process.logger.WithField("path", path).Trace("launched")
	return process, nil
}

// The go runtime reports child-side exec failures through the same error as
// fork-level failures.  Fork itself can only fail with a handful of errnos;
// everything else was reported by the child.
func classifyLaunchError(err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.ENOMEM, syscall.ENOSYS:
			return ForkError{Err: err}
		}
	}

	return ChildError{Message: err.Error()}
}

func (process *Process) Pid() int {
	return process.pid
}

func (process *Process) State() ProcessState {
	return process.state
}

// GetStatus returns the process' single-character run state from
// /proc/<pid>/stat.  This may briefly disagree with State() since the os
// schedules the process independently.
func (process *Process) GetStatus() (byte, error) {
	status, err := procfs.GetProcessStatus(process.pid)
	if err != nil {
		return 0, err
	}

	return status.StateChar, nil
}

// Resume continues a stopped process.  It never blocks; WaitOnSignal
// observes the next stop.
func (process *Process) Resume() error {
	err := process.tracer.Resume(0)
	if err != nil {
		return TraceError{Err: err}
	}

	process.state = Running
	process.logger.Trace("resumed")
	return nil
}

func (process *Process) WaitOnSignal() (StopReason, error) {
	// NOTE: golang does not support waitpid
	var status unix.WaitStatus
	_, err := unix.Wait4(process.pid, &status, 0, nil)
	if err != nil {
		return StopReason{}, WaitError{
			Err: fmt.Errorf("failed to wait for process %d: %w", process.pid, err),
		}
	}

	reason := newStopReason(process.pid, status)
	process.state = reason.State

	if reason.State == Stopped && process.isAttached {
		err = process.readAllRegisters()
		if err != nil {
			return StopReason{}, err
		}
	}

	process.logger.WithField("state", reason.State).Trace("wait returned")
	return reason, nil
}

func (process *Process) readAllRegisters() error {
	gpr, err := process.tracer.GetGeneralRegisters()
	if err != nil {
		return TraceError{Err: err}
	}
	process.registers.SetGeneralRegisters(gpr)

	fpr, err := process.tracer.GetFloatingPointRegisters()
	if err != nil {
		return TraceError{Err: err}
	}
	process.registers.SetFloatingPointRegisters(fpr)

	for idx := 0; idx < 8; idx++ {
		info := registers.ById(registers.Dr0 + registers.Id(idx))

		value, err := process.tracer.PeekUserArea(info.Offset)
		if err != nil {
			return TraceError{Err: err}
		}
		process.registers.SetDebugRegister(idx, uint64(value))
	}

	return nil
}

// Registers exposes the register snapshot captured at the last observed
// stop.  Reads decode the snapshot; use WriteRegister to mutate.
func (process *Process) Registers() *registers.Registers {
	return &process.registers
}

func (process *Process) ReadRegister(info registers.Info) registers.Value {
	return process.registers.Read(info)
}

func (process *Process) WriteRegister(
	info registers.Info,
	value registers.Value,
) error {
	if process.state != Stopped {
		return fmt.Errorf(
			"cannot write register. process %d not stopped (%s)",
			process.pid,
			process.state)
	}

	return process.registers.Write(process, info, value)
}

// WriteUserArea / WriteFloatingPointRegisters implement
// registers.UserAreaWriter.
func (process *Process) WriteUserArea(offset uintptr, word uint64) error {
	err := process.tracer.PokeUserArea(offset, uintptr(word))
	if err != nil {
		return TraceError{Err: err}
	}
	return nil
}

func (process *Process) WriteFloatingPointRegisters(
	fpRegs *ptrace.UserFPRegs,
) error {
	err := process.tracer.SetFloatingPointRegisters(fpRegs)
	if err != nil {
		return TraceError{Err: err}
	}
	return nil
}

func (process *Process) signal(signal unix.Signal) error {
	err := unix.Kill(process.pid, signal)
	if err != nil {
		return fmt.Errorf(
			"failed to signal to process %d (%v): %w",
			process.pid,
			signal,
			err)
	}

	return nil
}

func (process *Process) reap() {
	var status unix.WaitStatus
	_, _ = unix.Wait4(process.pid, &status, 0, nil)
}

// Close releases the process.  A traced process is stopped if needed,
// detached, then continued; a spawned process is killed and reaped.  Cleanup
// failures are discarded since there is nothing sensible left to do with
// them.
func (process *Process) Close() {
	if process.pid == 0 {
		return
	}

	if process.isAttached {
		if process.state == Running {
			_ = process.signal(unix.SIGSTOP)
			process.reap()
		}

		_ = process.tracer.Detach()
		_ = process.signal(unix.SIGCONT)
	} else {
		// The detach request fails against an untraced process; it still
		// shuts down the tracer's request loop.
		_ = process.tracer.Detach()
	}

	if process.terminateOnDrop {
		_ = process.signal(unix.SIGKILL)
		process.reap()
	}

	process.logger.Trace("closed")
}
