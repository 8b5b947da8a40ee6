package procfs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type ProcessState string

const (
	Running        = ProcessState("running")
	Sleeping       = ProcessState("sleeping")
	WaitingForDisk = ProcessState("waiting for disk")
	Zombie         = ProcessState("zombie")
	TracingStop    = ProcessState("tracing stop")
	Dead           = ProcessState("dead")
	Idle           = ProcessState("idle")
)

type ProcessStatus struct {
	Pid  int
	Comm string

	// The raw single-character state field from /proc/<pid>/stat, plus its
	// decoded form.
	StateChar byte
	State     ProcessState

	Ppid int

	// NOTE: See man page for the full list of (52) fields.
}

func GetProcessStatus(pid int) (ProcessStatus, error) {
	contentBytes, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return ProcessStatus{}, fmt.Errorf(
			"failed to read process %d status: %w",
			pid,
			err)
	}

	content := string(contentBytes)

	// comm may itself contain spaces and parens; the kernel wraps the whole
	// field in one outer pair.
	commStart := strings.Index(content, "(")
	commEnd := strings.LastIndex(content, ")")

	chunks := strings.Split(content[commEnd+2:], " ")

	pid, err = strconv.Atoi(strings.TrimSpace(content[:commStart]))
	if err != nil {
		panic("should never happen: " + err.Error())
	}

	stateChar := chunks[0][0]

	var state ProcessState
	switch stateChar {
	case 'R':
		state = Running
	case 'S':
		state = Sleeping
	case 'D':
		state = WaitingForDisk
	case 'Z':
		state = Zombie
	case 't':
		state = TracingStop
	case 'X':
		state = Dead
	case 'I':
		state = Idle
	}

	ppid, err := strconv.Atoi(chunks[1])
	if err != nil {
		panic("should never happen: " + err.Error())
	}

	return ProcessStatus{
		Pid:       pid,
		Comm:      content[commStart+1 : commEnd],
		StateChar: stateChar,
		State:     state,
		Ppid:      ppid,
	}, nil
}
