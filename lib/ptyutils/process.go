/*
Copyright 2015-2020 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package ptyutils is the concrete realization of the "PTYProcess"
// capability spec.md §6 treats as a provided external primitive: spawn a
// child under a controlling PTY, read its output, write to its input,
// wait for exit, and report liveness. Built on creack/pty the way the
// wider Teleport/OpenSSH ecosystem drives interactive subprocesses.
package ptyutils

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// maxBufferBytes is the output size a Process aims to retain for matching
// and tail reporting. When the buffer grows past it and Find has already
// searched past all of the excess, the excess is dropped from the front;
// output Find has not yet searched is never dropped, so the buffer can
// exceed this size.
const maxBufferBytes = 1 << 20 // 1MiB

// Process is a child spawned under a controlling PTY. Reads, writes, and
// prompt matching against a single Process must come from one goroutine
// at a time (spec.md §5): the dialog engine owns a Process for the
// duration of its handshake.
type Process struct {
	cmd  *exec.Cmd
	ptmx *os.File

	mu         sync.Mutex
	buf        []byte
	searchFrom int
	notify     chan struct{}
	exited     bool
	waitErr    error
	exitCode   int

	logger log.FieldLogger
}

// Start spawns path with args under a new PTY, with env appended to the
// current process environment (the caller is responsible for including
// entries like "TERM=vt100", spec.md §3).
func Start(path string, args []string, env []string, logger log.FieldLogger) (*Process, error) {
	cmd := exec.Command(path, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	p := &Process{
		cmd:    cmd,
		ptmx:   ptmx,
		notify: make(chan struct{}),
		logger: logger,
	}

	go p.pump()
	go p.reap()

	return p, nil
}

// InheritSize sets the child's PTY size to that of the terminal open on
// fd. Nothing in this module calls it: RunShell leaves the PTY at its
// default size.
func (p *Process) InheritSize(fd int) error {
	width, height, err := term.GetSize(fd)
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(pty.Setsize(p.ptmx, &pty.Winsize{
		Rows: uint16(height),
		Cols: uint16(width),
	}))
}

func (p *Process) pump() {
	chunk := make([]byte, 4096)
	for {
		n, err := p.ptmx.Read(chunk)
		if n > 0 {
			p.append(chunk[:n])
		}
		if err != nil {
			if p.logger != nil && err != io.EOF {
				p.logger.WithError(err).Debug("pty read ended")
			}
			return
		}
	}
}

func (p *Process) append(data []byte) {
	p.mu.Lock()
	p.buf = append(p.buf, data...)
	if over := len(p.buf) - maxBufferBytes; over > 0 && p.searchFrom >= over {
		p.buf = p.buf[over:]
		p.searchFrom -= over
	}
	p.wakeLocked()
	p.mu.Unlock()
}

func (p *Process) reap() {
	err := p.cmd.Wait()

	// A non-zero exit surfaces as *exec.ExitError; that's not a failure to
	// wait, it's the exit code Alive/ExitCode already expose separately.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = nil
	}

	p.mu.Lock()
	p.exited = true
	p.waitErr = err
	if p.cmd.ProcessState != nil {
		p.exitCode = p.cmd.ProcessState.ExitCode()
	}
	p.wakeLocked()
	p.mu.Unlock()
}

// wakeLocked must be called with mu held; it releases every goroutine
// blocked in Find or Wait so they re-check their condition.
func (p *Process) wakeLocked() {
	close(p.notify)
	p.notify = make(chan struct{})
}

// Find scans the child's accumulated output for the first pattern (by
// list priority, spec.md §4.4) that matches, blocking up to timeout for
// new output to arrive. It returns (-1, "", nil) on a plain timeout —
// the dialog engine's documented "no match yet" case, not an error.
func (p *Process) Find(ctx context.Context, patterns []*regexp.Regexp, timeout time.Duration) (int, string, error) {
	deadline := time.Now().Add(timeout)

	for {
		p.mu.Lock()
		if idx, text, ok := p.matchLocked(patterns); ok {
			p.mu.Unlock()
			return idx, text, nil
		}
		exited := p.exited
		waitErr := p.waitErr
		waitCh := p.notify
		p.mu.Unlock()

		if exited {
			if waitErr != nil {
				return -1, "", trace.Wrap(waitErr)
			}
			return -1, "", trace.Wrap(io.EOF)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return -1, "", nil
		}

		timer := time.NewTimer(remaining)
		select {
		case <-waitCh:
			timer.Stop()
		case <-timer.C:
			return -1, "", nil
		case <-ctx.Done():
			timer.Stop()
			return -1, "", trace.Wrap(ctx.Err())
		}
	}
}

// matchLocked must be called with mu held.
func (p *Process) matchLocked(patterns []*regexp.Regexp) (int, string, bool) {
	data := p.buf[p.searchFrom:]
	for i, re := range patterns {
		if loc := re.FindIndex(data); loc != nil {
			text := string(data[loc[0]:loc[1]])
			p.searchFrom += loc[1]
			return i, text, true
		}
	}
	return 0, "", false
}

// Write sends data to the child's controlling terminal.
func (p *Process) Write(data []byte) error {
	_, err := p.ptmx.Write(data)
	return trace.Wrap(err)
}

// Wait blocks until the child exits. It returns nil for a clean exit or a
// non-zero exit code alike — ExitCode reports the exit status — and only
// a non-nil error when the child could not be waited on at all.
func (p *Process) Wait() error {
	for {
		p.mu.Lock()
		if p.exited {
			err := p.waitErr
			p.mu.Unlock()
			return err
		}
		waitCh := p.notify
		p.mu.Unlock()
		<-waitCh
	}
}

// ExitCode returns the child's exit code. Valid only after Wait returns.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Alive reports whether the child is still running. When recover is
// true and the child has already exited, Alive still reports false: a
// PTY-backed ssh control-master cannot be resurrected in place, only
// recreated, which is the registry's job (spec.md §4.3), not this type's.
func (p *Process) Alive(recover bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.exited {
		return true
	}
	_ = recover
	return false
}

// Cache returns a copy of everything captured from the child so far.
func (p *Process) Cache() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, len(p.buf))
	copy(out, p.buf)
	return out
}

// Tail returns the last n bytes of captured output, used to build
// "file copy failed: <tail>" messages (spec.md §4.5).
func (p *Process) Tail(n int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := len(p.buf) - n
	if start < 0 {
		start = 0
	}
	out := make([]byte, len(p.buf)-start)
	copy(out, p.buf[start:])
	return out
}

// Kill terminates the child immediately. Used on any dialog failure so
// a half-authenticated PTY is never leaked (spec.md §5 scoped
// acquisition).
func (p *Process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return trace.Wrap(p.cmd.Process.Kill())
}
