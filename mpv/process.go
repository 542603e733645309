package mpv

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/mpvctl-cli/mpvctl/log"
)

// Startup markers derived from the player's own terminal output.
const (
	ipcBoundMarker      = "Listening to IPC"
	ipcBindFailedMarker = "Could not bind IPC"
)

const (
	bindWaitTimeout   = 10 * time.Second
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitWaitTimeout   = 3 * time.Second
)

// process supervises one spawned player: it reaps the child to prevent
// zombies and sniffs its output for the IPC bound / bind-failed signals.
type process struct {
	cmd    *exec.Cmd
	exited chan struct{}
	bound  chan error
}

// startProcess launches the player binary detached from the parent
// process group and begins watching its startup output.
func startProcess(binary string, args []string) (*process, error) {
	cmd := exec.Command(binary, args...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	p := &process{
		cmd:    cmd,
		exited: make(chan struct{}),
		bound:  make(chan error, 1),
	}

	// The player logs on stderr or stdout depending on build; sniff both.
	go p.sniff(stdout)
	go p.sniff(stderr)

	go func() {
		_ = cmd.Wait()
		close(p.exited)
	}()

	return p, nil
}

// sniff scans one output stream for the startup markers.
func (p *process) sniff(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, ipcBindFailedMarker):
			select {
			case p.bound <- fmt.Errorf("%w: %s", ErrBindFailure, line):
			default:
			}
			return
		case strings.Contains(line, ipcBoundMarker):
			select {
			case p.bound <- nil:
			default:
			}
			return
		}
	}
}

// waitBound blocks until the player reports its IPC endpoint bound, the
// process exits prematurely, or the bind wait times out.
func (p *process) waitBound() error {
	select {
	case err := <-p.bound:
		return err
	case <-p.exited:
		return fmt.Errorf("%w: player exited during startup", ErrBindFailure)
	case <-time.After(bindWaitTimeout):
		return fmt.Errorf("%w: no bind signal after %s", ErrBindFailure, bindWaitTimeout)
	}
}

// waitForSocket polls until the IPC socket accepts connections. The
// bound marker can precede the socket actually listening on some
// platforms, so confirm by dialing.
func (p *process) waitForSocket(socketPath string) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-p.exited:
			return fmt.Errorf("%w: player exited before socket was ready", ErrBindFailure)
		default:
		}

		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(socketWaitDelay)
	}
	return fmt.Errorf("%w: socket %s not ready after %d attempts", ErrBindFailure, socketPath, socketWaitRetries)
}

// stop waits briefly for a graceful exit, then kills the process group.
func (p *process) stop() {
	select {
	case <-p.exited:
	case <-time.After(quitWaitTimeout):
		log.Warnf("player did not exit after quit, killing")
		_ = killProcess(p.cmd)
	}
}
