package executor

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Process is a long-lived child attached to a terminal. Its combined stdout and
// stderr stream into the writer given to Start; stdin stays open for Write.
type Process struct {
	cmd   *exec.Cmd
	name  string
	stdin io.WriteCloser
	done  chan struct{}

	writeMu sync.Mutex

	mu       sync.Mutex
	exitCode int
}

// Start launches command without waiting for it. output must be safe for use
// by one writer goroutine concurrently with the caller's readers.
func (f *OSCommandExecutor) Start(command []string, dir string, env []string, output io.Writer) (*Process, error) {
	if len(command) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = output
	cmd.Stderr = output
	cmd.WaitDelay = f.gracePeriod()
	setupProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &CommandError{Cmd: command[0], Cause: err, Stage: "start"}
	}
	if err := cmd.Start(); err != nil {
		return nil, &CommandError{Cmd: command[0], Cause: err, Stage: "start"}
	}

	p := &Process{
		cmd:      cmd,
		name:     command[0],
		stdin:    stdin,
		done:     make(chan struct{}),
		exitCode: -1,
	}
	go p.wait()
	return p, nil
}

func (p *Process) wait() {
	err := p.cmd.Wait()
	code := 0
	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		code = exitCode(err)
	}
	p.mu.Lock()
	p.exitCode = code
	p.mu.Unlock()
	close(p.done)
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed once the process has exited and its output has been drained.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Running reports whether the process has not yet exited.
func (p *Process) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// ExitCode returns the exit status once the process has finished.
func (p *Process) ExitCode() (int, bool) {
	if p.Running() {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, true
}

// Write sends data to the process's stdin. It returns when the data is
// written, the process exits or ctx is done, whichever comes first. A write
// abandoned by ctx finishes in the background once the child reads or exits;
// writes never interleave.
func (p *Process) Write(ctx context.Context, data []byte) (int, error) {
	if !p.Running() {
		return 0, ErrProcessExited
	}
	type result struct {
		n   int
		err error
	}
	written := make(chan result, 1)
	go func() {
		p.writeMu.Lock()
		defer p.writeMu.Unlock()
		n, err := p.stdin.Write(data)
		written <- result{n, err}
	}()

	select {
	case r := <-written:
		if r.err != nil {
			return r.n, &CommandError{Cmd: p.name, Cause: r.err, Stage: "stdin"}
		}
		return r.n, nil
	case <-p.done:
		return 0, ErrProcessExited
	case <-ctx.Done():
		return 0, &CommandError{Cmd: p.name, Cause: ctx.Err(), Stage: "stdin"}
	}
}

// Kill terminates the whole process group and waits for the process to exit.
// Killing a process that already exited is not an error.
func (p *Process) Kill() error {
	if !p.Running() {
		return nil
	}
	err := killProcessGroup(p.cmd)
	<-p.done
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return &CommandError{Cmd: p.name, Cause: err, Stage: "kill"}
	}
	return nil
}
