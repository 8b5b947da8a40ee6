package sdb

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type ProcessState string

const (
	Stopped    = ProcessState("stopped")
	Running    = ProcessState("running")
	Exited     = ProcessState("exited")
	Terminated = ProcessState("terminated")
)

type StopReason struct {
	Pid int

	State ProcessState

	// Only populated when state is exited.
	ExitStatus int

	// The stop signal when state is stopped, the terminating signal when
	// state is terminated.
	Signal unix.Signal
}

func newStopReason(pid int, status unix.WaitStatus) StopReason {
	switch {
	case status.Exited():
		return StopReason{
			Pid:        pid,
			State:      Exited,
			ExitStatus: status.ExitStatus(),
		}
	case status.Signaled():
		return StopReason{
			Pid:    pid,
			State:  Terminated,
			Signal: status.Signal(),
		}
	case status.Stopped():
		return StopReason{
			Pid:    pid,
			State:  Stopped,
			Signal: status.StopSignal(),
		}
	default:
		panic("should never happen")
	}
}

func (reason StopReason) String() string {
	switch reason.State {
	case Running:
		return fmt.Sprintf("process %d running", reason.Pid)
	case Stopped:
		return fmt.Sprintf(
			"process %d stopped with signal: %v",
			reason.Pid,
			reason.Signal)
	case Exited:
		return fmt.Sprintf(
			"process %d exited with status: %d",
			reason.Pid,
			reason.ExitStatus)
	case Terminated:
		return fmt.Sprintf(
			"process %d terminated with signal: %v",
			reason.Pid,
			reason.Signal)
	default:
		panic("should never happen")
	}
}
