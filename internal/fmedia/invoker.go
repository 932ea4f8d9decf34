package fmedia

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// Invoker runs the fmedia binary. One Invoker may serve any number of
// concurrent invocations; it holds no per-process state.
type Invoker struct {
	binary           string
	notFoundPatterns []string
}

// DefaultNotFoundPatterns matches the error text fmedia emits when a global
// command addresses a pipe with no running instance behind it. The exact
// wording varies across fmedia versions, so callers can override the list
// via NewInvoker.
var DefaultNotFoundPatterns = []string{"not found"}

// NewInvoker creates an invoker for the given binary. An empty pattern list
// falls back to DefaultNotFoundPatterns.
func NewInvoker(binary string, notFoundPatterns []string) *Invoker {
	if len(notFoundPatterns) == 0 {
		notFoundPatterns = DefaultNotFoundPatterns
	}
	return &Invoker{
		binary:           binary,
		notFoundPatterns: notFoundPatterns,
	}
}

// Handle is a spawned fmedia process whose output has not been drained yet.
type Handle struct {
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  io.ReadCloser
	control bool
}

// Spawn starts the binary with the given arguments. When capture is true the
// process stdout/stderr are piped and must be drained via Drain; when false
// neither stream is read and the process is left running on its own.
func (inv *Invoker) Spawn(args []string, capture bool) (*Handle, error) {
	cmd := exec.Command(inv.binary, args...)

	h := &Handle{cmd: cmd, control: isControlInvocation(args)}
	if capture {
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
		}
		h.stdout = stdout
		h.stderr = stderr
	}

	slog.Debug("Spawning recorder process", "binary", inv.binary, "args", strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Binary: inv.binary, Err: err}
	}

	return h, nil
}

// Drain forwards stdout line-by-line to sink (which may be nil), discards
// stderr, and waits for the process to exit. Both streams are read
// concurrently so neither can stall the other. For control invocations the
// combined output is used to classify the not-running condition as
// ErrTargetNotFound.
func (inv *Invoker) Drain(h *Handle, sink func(line string)) error {
	var stdoutBuf, stderrBuf strings.Builder

	var wg sync.WaitGroup
	if h.stdout != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			readLines(h.stdout, func(line string) {
				stdoutBuf.WriteString(line + "\n")
				if sink != nil {
					sink(line)
				}
			})
		}()
	}
	if h.stderr != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			readLines(h.stderr, func(line string) {
				stderrBuf.WriteString(line + "\n")
			})
		}()
	}
	wg.Wait()

	err := h.cmd.Wait()
	return inv.classify(h.control, stdoutBuf.String()+stderrBuf.String(), err)
}

// classify maps a finished invocation's output and exit status to an error.
// The not-found markers are only meaningful when a global command addressed
// a pipe; listing output may legitimately contain the same text, so it is
// never classified.
func (inv *Invoker) classify(control bool, output string, waitErr error) error {
	if control && inv.matchesNotFound(output) {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, strings.TrimSpace(output))
	}
	if waitErr != nil {
		if strings.TrimSpace(output) != "" {
			return fmt.Errorf("%s failed: %w (output: %s)", inv.binary, waitErr, strings.TrimSpace(output))
		}
		return fmt.Errorf("%s failed: %w", inv.binary, waitErr)
	}
	return nil
}

// isControlInvocation reports whether the argument vector sends a global
// command to a running instance.
func isControlInvocation(args []string) bool {
	for _, a := range args {
		if strings.HasPrefix(a, "--globcmd=") {
			return true
		}
	}
	return false
}

// Start spawns the binary and returns as soon as the process handle exists.
// The process is never waited on; recording sessions are long-lived and
// outlive this call.
func (inv *Invoker) Start(args []string) error {
	_, err := inv.Spawn(args, false)
	return err
}

// Run spawns the binary with output capture and drains it to completion.
func (inv *Invoker) Run(args []string, sink func(line string)) error {
	h, err := inv.Spawn(args, true)
	if err != nil {
		return err
	}
	return inv.Drain(h, sink)
}

// matchesNotFound reports whether the process output contains one of the
// configured not-running markers. Matching is case-insensitive.
func (inv *Invoker) matchesNotFound(output string) bool {
	if output == "" {
		return false
	}
	lower := strings.ToLower(output)
	for _, pattern := range inv.notFoundPatterns {
		if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// readLines reads a pipe line by line until it closes.
func readLines(pipe io.ReadCloser, fn func(line string)) {
	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	pipe.Close()
}
