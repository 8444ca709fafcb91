package executor

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Cyclone1070/workspacerpc/internal/config"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunWithTimeout(t *testing.T) {
	skipOnWindows(t)
	cfg := config.DefaultConfig()
	cfg.Tools.GracefulShutdownMs = 100
	exec := NewOSCommandExecutor(cfg)

	t.Run("CompletesBeforeTimeout", func(t *testing.T) {
		res, err := exec.RunWithTimeout(context.Background(), []string{"echo", "hi"}, "", nil, 1*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(res.Stdout) != "hi" {
			t.Errorf("expected stdout 'hi', got %q", res.Stdout)
		}
		if res.TimedOut || res.ExitCode != 0 {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("EmptyCommand", func(t *testing.T) {
		_, err := exec.RunWithTimeout(context.Background(), nil, "", nil, time.Second)
		if !errors.Is(err, ErrEmptyCommand) {
			t.Errorf("expected ErrEmptyCommand, got %v", err)
		}
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		res, err := exec.RunWithTimeout(context.Background(), []string{"sh", "-c", "exit 3"}, "", nil, time.Second)
		if !IsExitError(err) {
			t.Fatalf("expected exit error, got %v", err)
		}
		if res.ExitCode != 3 {
			t.Errorf("expected exit code 3, got %d", res.ExitCode)
		}
	})

	t.Run("Stderr", func(t *testing.T) {
		res, err := exec.RunWithTimeout(context.Background(), []string{"sh", "-c", "echo error >&2"}, "", nil, time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(res.Stderr) != "error" {
			t.Errorf("expected stderr 'error', got %q", res.Stderr)
		}
	})

	t.Run("SpawnFailure", func(t *testing.T) {
		_, err := exec.RunWithTimeout(context.Background(), []string{"definitely-not-a-real-binary-xyz"}, "", nil, time.Second)
		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Stage != "start" {
			t.Fatalf("expected start CommandError, got %v", err)
		}
	})

	t.Run("Input", func(t *testing.T) {
		res, err := exec.RunWithInput(context.Background(), []string{"cat"}, "", nil, []byte("piped"), time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Stdout != "piped" {
			t.Errorf("expected stdout 'piped', got %q", res.Stdout)
		}
	})

	t.Run("LargeOutput", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Tools.MaxCommandOutputSize = 10
		exec := NewOSCommandExecutor(cfg)

		res, err := exec.RunWithTimeout(context.Background(), []string{"echo", "123456789012345"}, "", nil, time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Truncated {
			t.Error("expected output to be truncated")
		}
		if len(res.Stdout) > 10 {
			t.Errorf("expected stdout length <= 10, got %d", len(res.Stdout))
		}
	})

	t.Run("TimeoutKillsProcess", func(t *testing.T) {
		start := time.Now()
		res, err := exec.RunWithTimeout(context.Background(), []string{"sleep", "10"}, "", nil, 100*time.Millisecond)
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if !res.TimedOut || res.ExitCode >= 0 {
			t.Errorf("expected timed out result with negative exit code, got %+v", res)
		}
		if time.Since(start) > 5*time.Second {
			t.Errorf("timeout took too long: %v", time.Since(start))
		}
	})

	t.Run("OutputCollectedOnTimeout", func(t *testing.T) {
		cmd := []string{"sh", "-c", "echo starting; sleep 10"}
		res, err := exec.RunWithTimeout(context.Background(), cmd, "", nil, 500*time.Millisecond)
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if strings.TrimSpace(res.Stdout) != "starting" {
			t.Errorf("expected stdout 'starting', got %q", res.Stdout)
		}
	})

	t.Run("IgnoresInterrupt", func(t *testing.T) {
		cmd := []string{"sh", "-c", "trap '' INT; sleep 10"}
		res, err := exec.RunWithTimeout(context.Background(), cmd, "", nil, 100*time.Millisecond)
		if !errors.Is(err, ErrTimeout) || !res.TimedOut {
			t.Errorf("expected timeout, got %v", err)
		}
	})

	t.Run("TimeoutSkipsGracePeriod", func(t *testing.T) {
		slow := config.DefaultConfig()
		slow.Tools.GracefulShutdownMs = 30000
		cmd := []string{"sh", "-c", "trap '' INT TERM; sleep 30"}

		start := time.Now()
		res, err := NewOSCommandExecutor(slow).RunWithTimeout(context.Background(), cmd, "", nil, 100*time.Millisecond)

		if !errors.Is(err, ErrTimeout) || !res.TimedOut || res.ExitCode >= 0 {
			t.Fatalf("expected timed out result, got %+v, %v", res, err)
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Errorf("timeout waited %v, expected an immediate kill", elapsed)
		}
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()
		_, err := exec.RunWithTimeout(ctx, []string{"sleep", "10"}, "", nil, 10*time.Second)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStart(t *testing.T) {
	skipOnWindows(t)
	cfg := config.DefaultConfig()
	cfg.Tools.GracefulShutdownMs = 100
	exec := NewOSCommandExecutor(cfg)

	t.Run("StdinRoundTrip", func(t *testing.T) {
		out := &syncBuffer{}
		p, err := exec.Start([]string{"cat"}, "", nil, out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := p.Write(context.Background(), []byte("hello\n")); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		deadline := time.Now().Add(5 * time.Second)
		for !strings.Contains(out.String(), "hello") && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		if !strings.Contains(out.String(), "hello") {
			t.Fatalf("expected echoed output, got %q", out.String())
		}

		if err := p.Kill(); err != nil {
			t.Fatalf("kill failed: %v", err)
		}
		if p.Running() {
			t.Error("expected process to be stopped")
		}
		if _, err := p.Write(context.Background(), []byte("more")); !errors.Is(err, ErrProcessExited) {
			t.Errorf("expected ErrProcessExited, got %v", err)
		}
	})

	t.Run("StdinWriteToNonReader", func(t *testing.T) {
		p, err := exec.Start([]string{"sleep", "30"}, "", nil, &syncBuffer{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err = p.Write(ctx, bytes.Repeat([]byte("x"), 1<<20))
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline error, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > 3*time.Second {
			t.Fatalf("write held for %v", elapsed)
		}

		killed := make(chan error, 1)
		go func() { killed <- p.Kill() }()
		select {
		case err := <-killed:
			if err != nil {
				t.Fatalf("kill failed: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("kill blocked behind the pending write")
		}
	})

	t.Run("ExitCode", func(t *testing.T) {
		p, err := exec.Start([]string{"sh", "-c", "exit 4"}, "", nil, &syncBuffer{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		select {
		case <-p.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("process did not exit")
		}
		code, ok := p.ExitCode()
		if !ok || code != 4 {
			t.Errorf("expected exit code 4, got %d (%v)", code, ok)
		}
		if err := p.Kill(); err != nil {
			t.Errorf("kill after exit should be a no-op, got %v", err)
		}
	})
}

func TestCollector(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		sample    int
		writes    [][]byte
		want      string
		truncated bool
	}{
		{"under limit", 10, 5, [][]byte{[]byte("abc")}, "abc", false},
		{"over limit", 5, 5, [][]byte{[]byte("abcdef")}, "abcde", true},
		{"limit across writes", 4, 5, [][]byte{[]byte("ab"), []byte("cd"), []byte("ef")}, "abcd", true},
		{"binary in sample", 10, 5, [][]byte{{'a', 0, 'b'}}, "[binary output, 3B]", true},
		{"binary after sample is kept", 10, 2, [][]byte{[]byte("ab"), {0, 'c'}}, "ab\x00c", false},
		{"invalid utf8 replaced", 10, 0, [][]byte{{'o', 'k', 0xff}}, "ok\uFFFD", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCollector(tt.limit, tt.sample)
			for _, w := range tt.writes {
				n, err := c.Write(w)
				if err != nil || n != len(w) {
					t.Fatalf("Write(%q) = %d, %v", w, n, err)
				}
			}
			if got := c.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if c.Truncated() != tt.truncated {
				t.Errorf("Truncated() = %v, want %v", c.Truncated(), tt.truncated)
			}
		})
	}
}
