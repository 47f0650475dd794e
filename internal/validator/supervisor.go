package validator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/fystack/solana-studio/pkg/common/constant"
	"github.com/fystack/solana-studio/pkg/common/logger"
)

var ErrAlreadyRunning = errors.New("process already running")

// ProcessError reports a spawn or kill failure at the OS boundary.
type ProcessError struct {
	Op  string
	Err error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("validator %s: %v", e.Op, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Process is the contract the controller drives.
type Process interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
	ReadLine() string
}

type SupervisorConfig struct {
	Binary string
	Args   []string
	// OutputBuffer is the number of captured lines kept before the oldest are dropped.
	OutputBuffer int
}

// Supervisor owns at most one validator child process. The handle never
// leaves this type.
type Supervisor struct {
	binary  string
	args    []string
	bufSize int

	mu    sync.Mutex
	cmd   *exec.Cmd
	done  chan struct{}
	lines chan string
}

var _ Process = (*Supervisor)(nil)

func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	binary := cfg.Binary
	if binary == "" {
		binary = constant.DefaultValidatorBinary
	}
	args := cfg.Args
	if args == nil {
		args = constant.DefaultValidatorArgs
	}
	bufSize := cfg.OutputBuffer
	if bufSize <= 0 {
		bufSize = 1024
	}
	return &Supervisor{
		binary:  binary,
		args:    append([]string(nil), args...),
		bufSize: bufSize,
	}
}

// Start spawns the validator with stdout and stderr captured.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return &ProcessError{Op: "start", Err: ErrAlreadyRunning}
	}
	if err := ctx.Err(); err != nil {
		return &ProcessError{Op: "start", Err: err}
	}

	path, err := exec.LookPath(s.binary)
	if err != nil {
		return &ProcessError{Op: "start", Err: err}
	}

	// Not CommandContext: the child must outlive the caller's context.
	cmd := exec.Command(path, s.args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &ProcessError{Op: "start", Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &ProcessError{Op: "start", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return &ProcessError{Op: "start", Err: err}
	}

	lines := make(chan string, s.bufSize)
	done := make(chan struct{})

	var pumps sync.WaitGroup
	pumps.Add(2)
	go s.pump(stdout, lines, &pumps)
	go s.pump(stderr, lines, &pumps)

	go func() {
		// Wait must follow the last read from the pipes.
		pumps.Wait()
		close(lines)
		err := cmd.Wait()
		logger.Debug("Validator process exited", "pid", cmd.Process.Pid, "err", err)
		close(done)
	}()

	s.cmd = cmd
	s.done = done
	s.lines = lines
	logger.Info("Validator process started", "binary", path, "args", s.args, "pid", cmd.Process.Pid)
	return nil
}

// Stop kills the held process, if any. Kill failures (typically a process
// that already exited) are logged and dropped, so Stop never fails.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	cmd, done := s.cmd, s.done
	s.cmd, s.done = nil, nil
	s.mu.Unlock()

	if cmd == nil {
		return nil
	}

	if err := cmd.Process.Kill(); err != nil {
		logger.Debug("Kill validator process", "pid", cmd.Process.Pid, "err", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("Gave up waiting for validator process to exit", "pid", cmd.Process.Pid)
	}
	logger.Info("Validator process stopped", "pid", cmd.Process.Pid)
	return nil
}

// IsRunning reports whether a handle is held. It does not probe the OS.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

// ReadLine returns the next captured line, or constant.NoOutput when
// nothing is buffered. It never blocks.
func (s *Supervisor) ReadLine() string {
	s.mu.Lock()
	lines := s.lines
	s.mu.Unlock()

	if lines == nil {
		return constant.NoOutput
	}
	select {
	case line, ok := <-lines:
		if !ok {
			return constant.NoOutput
		}
		return line
	default:
		return constant.NoOutput
	}
}

func (s *Supervisor) pump(r io.Reader, lines chan string, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	dropped := 0
	for scanner.Scan() {
		if offer(lines, scanner.Text()) {
			dropped++
		}
	}
	if dropped > 0 {
		logger.Debug("Dropped validator output lines", "count", dropped)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		logger.Debug("Validator output stream ended", "err", err)
	}
}

// offer enqueues line, evicting the oldest buffered line when full so an
// unread buffer never stalls the child process.
func offer(lines chan string, line string) (dropped bool) {
	for {
		select {
		case lines <- line:
			return dropped
		default:
			select {
			case <-lines:
				dropped = true
			default:
			}
		}
	}
}
