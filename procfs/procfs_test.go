package procfs

import (
	"os"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"
)

type ProcfsSuite struct{}

func TestProcfs(t *testing.T) {
	suite.RunTests(t, &ProcfsSuite{})
}

func (ProcfsSuite) TestSelfStatus(t *testing.T) {
	pid := os.Getpid()

	status, err := GetProcessStatus(pid)
	expect.Nil(t, err)

	expect.Equal(t, pid, status.Pid)
	expect.True(t, status.Comm != "")
	expect.Equal(t, 'R', status.StateChar)
	expect.Equal(t, Running, status.State)
	expect.Equal(t, os.Getppid(), status.Ppid)
}

func (ProcfsSuite) TestMissingProcess(t *testing.T) {
	_, err := GetProcessStatus(-1)
	expect.Error(t, err, "failed to read process -1 status")
}
