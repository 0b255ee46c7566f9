package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	chunkSize          = 32 * 1024
	stopGrace          = 3 * time.Second
	DefaultStartupWait = 300 * time.Millisecond
)

// ExecMicrophone records by running a command that writes audio to stdout,
// for example `arecord -q -f cd -t wav -` or
// `ffmpeg -f pulse -i default -f wav -`.
//
// Open succeeds once the recorder produces audio or is still running after
// StartupWait. A recorder that exits before either has failed to open the device.
type ExecMicrophone struct {
	Command     []string
	StartupWait time.Duration
}

func (m ExecMicrophone) Open(_ context.Context, onData func([]byte)) (Capture, error) {
	if len(m.Command) == 0 {
		return nil, fmt.Errorf("%w: no record command configured", ErrDeviceUnavailable)
	}
	// The process outlives the request context; Stop and Release end it.
	cmd := exec.Command(m.Command[0], m.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	c := &execCapture{cmd: cmd, done: make(chan struct{})}
	cmd.Stderr = &c.stderr
	if err := cmd.Start(); err != nil {
		return nil, classifyStart(err)
	}

	started := make(chan struct{})
	go func() {
		defer close(c.done)
		var once sync.Once
		buf := make([]byte, chunkSize)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				once.Do(func() { close(started) })
				onData(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()

	wait := m.StartupWait
	if wait <= 0 {
		wait = DefaultStartupWait
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-started:
	case <-timer.C:
	case <-c.done:
		select {
		case <-started:
		default:
			return nil, c.openFailure()
		}
	}
	return c, nil
}

// openFailure reaps a recorder that exited before producing audio.
func (c *execCapture) openFailure() error {
	err := c.wait()
	if classified := c.classifyExit(err); errors.Is(classified, ErrPermissionDenied) || errors.Is(classified, ErrDeviceUnavailable) {
		return classified
	}
	msg := strings.TrimSpace(c.stderr.String())
	if msg == "" && err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = "recorder exited without audio"
	}
	return fmt.Errorf("%w: %s", ErrDeviceUnavailable, msg)
}

func classifyStart(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
}

type execCapture struct {
	cmd    *exec.Cmd
	done   chan struct{}
	stderr bytes.Buffer

	stopped  bool
	waitOnce sync.Once
	waitErr  error
}

func (c *execCapture) wait() error {
	c.waitOnce.Do(func() {
		<-c.done
		c.waitErr = c.cmd.Wait()
	})
	return c.waitErr
}

// Stop interrupts the recorder so it can flush its output, killing it if it
// does not exit within the grace period.
func (c *execCapture) Stop() error {
	c.stopped = true
	if err := c.cmd.Process.Signal(os.Interrupt); err != nil {
		_ = c.cmd.Process.Kill()
	}
	select {
	case <-c.done:
	case <-time.After(stopGrace):
		_ = c.cmd.Process.Kill()
	}
	if err := c.wait(); err != nil {
		return c.classifyExit(err)
	}
	return nil
}

// classifyExit maps a recorder failure reported on stderr. Exits caused by
// our own interrupt are not failures.
func (c *execCapture) classifyExit(err error) error {
	msg := strings.TrimSpace(c.stderr.String())
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "permission denied"):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
	case strings.Contains(lower, "no such file"),
		strings.Contains(lower, "no such device"),
		strings.Contains(lower, "audio open error"),
		strings.Contains(lower, "device or resource busy"):
		return fmt.Errorf("%w: %s", ErrDeviceUnavailable, msg)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func (c *execCapture) Release() error {
	if !c.stopped {
		_ = c.cmd.Process.Kill()
	}
	_ = c.wait()
	return nil
}
