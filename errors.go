package sdb

// Error kinds mirror the failure domains of process control: what the
// spawned child reported, what ptrace rejected, what fork could not do,
// and what wait could not observe.  Callers dispatch on these with
// errors.As; cleanup is the only place where failures are discarded.

type ChildError struct {
	Message string
}

func (err ChildError) Error() string {
	return "child error: " + err.Message
}

type TraceError struct {
	Err error
}

func (err TraceError) Error() string {
	return "ptrace error: " + err.Err.Error()
}

func (err TraceError) Unwrap() error {
	return err.Err
}

type ForkError struct {
	Err error
}

func (err ForkError) Error() string {
	return "fork error: " + err.Err.Error()
}

func (err ForkError) Unwrap() error {
	return err.Err
}

type WaitError struct {
	Err error
}

func (err WaitError) Error() string {
	return "wait error: " + err.Err.Error()
}

func (err WaitError) Unwrap() error {
	return err.Err
}
