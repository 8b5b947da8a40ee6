// One-shot byte channel used to hand output between a debugger and its
// spawned process.
package pipe

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

const readBufferSize = 1024

// OperationError indicates pipe misuse, such as accessing a closed or
// transferred half.
type OperationError struct {
	Operation string
}

func (err OperationError) Error() string {
	return fmt.Sprintf("invalid operation. %s", err.Operation)
}

// NOTE: since file descriptor numbers are reused by the process, we'll need
// to ensure no operation can occur after close.  Closed / transferred halves
// are set to nil.
type Pipe struct {
	read  *os.File
	write *os.File
}

func New(closeOnExec bool) (*Pipe, error) {
	fds := make([]int, 2)

	flags := 0
	if closeOnExec {
		flags = unix.O_CLOEXEC
	}

	err := unix.Pipe2(fds, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}

	return &Pipe{
		read:  os.NewFile(uintptr(fds[0]), "pipe-read"),
		write: os.NewFile(uintptr(fds[1]), "pipe-write"),
	}, nil
}

// Read performs a single read of at most 1024 bytes.  It returns an empty
// result once all write ends are closed and the pipe is drained.
func (pipe *Pipe) Read() ([]byte, error) {
	if pipe.read == nil {
		return nil, OperationError{
			Operation: "reading from a closed pipe",
		}
	}

	buffer := make([]byte, readBufferSize)
	count, err := pipe.read.Read(buffer)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read from pipe: %w", err)
	}

	return buffer[:count], nil
}

func (pipe *Pipe) Write(data []byte) error {
	if pipe.write == nil {
		return OperationError{
			Operation: "writing to a closed pipe",
		}
	}

	_, err := pipe.write.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write to pipe: %w", err)
	}

	return nil
}

// TakeRead transfers ownership of the read half.  The pipe treats the half
// as closed afterwards and will not close it.
func (pipe *Pipe) TakeRead() *os.File {
	file := pipe.read
	pipe.read = nil
	return file
}

// TakeWrite transfers ownership of the write half.
func (pipe *Pipe) TakeWrite() *os.File {
	file := pipe.write
	pipe.write = nil
	return file
}

func (pipe *Pipe) CloseRead() error {
	if pipe.read == nil {
		return nil
	}

	err := pipe.read.Close()
	pipe.read = nil

	if err != nil {
		return fmt.Errorf("failed to close pipe read half: %w", err)
	}
	return nil
}

func (pipe *Pipe) CloseWrite() error {
	if pipe.write == nil {
		return nil
	}

	err := pipe.write.Close()
	pipe.write = nil

	if err != nil {
		return fmt.Errorf("failed to close pipe write half: %w", err)
	}
	return nil
}

func (pipe *Pipe) Close() error {
	readErr := pipe.CloseRead()
	writeErr := pipe.CloseWrite()

	if readErr != nil {
		return readErr
	}
	return writeErr
}
