package instance

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/danmuck/lspmux/internal/protocol"
)

// WorkspaceKey derives the logical workspace identity from a handshake:
// the working directory plus the exact launch arguments. Two clients with
// the same key are editing the same project with the same server options.
func WorkspaceKey(cwd string, args []string) string {
	parts := append([]string{cwd}, args...)
	return strings.Join(parts, "\x1f")
}

// Instance is one running language server process paired with the client
// connection that launched it. Stdin and Stdout are the process's piped
// standard streams; stderr stays on the daemon's own stderr so server-side
// diagnostics remain visible without being relayed.
type Instance struct {
	Key     string
	CWD     string
	Args    []string
	PID     int
	Started time.Time

	Stdin  io.WriteCloser
	Stdout io.ReadCloser

	cmd *exec.Cmd
}

// Launch starts serverPath with the handshake's arguments and working
// directory. Failure to start (missing binary, bad cwd, permissions) is
// connection-fatal for the caller; nothing is retried.
func Launch(serverPath string, init protocol.Init) (*Instance, error) {
	cmd := exec.Command(serverPath, init.Args...)
	cmd.Dir = init.CWD

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("instance: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("instance: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("instance: spawn %s: %w", serverPath, err)
	}

	return &Instance{
		Key:     WorkspaceKey(init.CWD, init.Args),
		CWD:     init.CWD,
		Args:    init.Args,
		PID:     cmd.Process.Pid,
		Started: time.Now(),
		Stdin:   stdin,
		Stdout:  stdout,
		cmd:     cmd,
	}, nil
}

// Close tears the process down and reaps it. Closing stdin gives a
// well-behaved server its EOF; the kill covers the rest. Safe to call
// after the process has already exited.
func (i *Instance) Close() error {
	_ = i.Stdin.Close()
	if i.cmd.Process != nil {
		_ = i.cmd.Process.Kill()
	}
	err := i.cmd.Wait()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return fmt.Errorf("instance: wait: %w", err)
	}
	return nil
}
