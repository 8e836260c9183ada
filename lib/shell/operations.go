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

package shell

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/saga-project/ptyshell/lib/ptyutils"
)

// tailBytes is the amount of captured PTY output folded into a failed
// copy's error message (spec.md §4.5).
const tailBytes = 256

// RunShell renders the transport's shell template, spawns a slave PTY
// against entry's control socket, drives it through the dialog engine,
// and returns the live slave for interactive use. The caller owns the
// slave's lifecycle from here (spec.md §4.5).
func RunShell(ctx context.Context, entry *MasterProfile, timeout time.Duration, logger log.FieldLogger) (*ptyutils.Process, error) {
	cmd := shellCommand(entry)
	proc, err := ptyutils.Start(cmd.path, cmd.args, cmd.env, logger)
	if err != nil {
		return nil, translate(NoSuccess("shell not connected to %s: %v", entry.HostStr, err))
	}

	if err := runDialog(ctx, proc, entry.Password, entry.CertPasswords, timeout, logger); err != nil {
		proc.Kill()
		return nil, err
	}
	return proc, nil
}

// RunCopyTo uploads src (local) to tgt (remote) over entry's shared
// master connection (spec.md §4.5).
func RunCopyTo(ctx context.Context, entry *MasterProfile, src, tgt, flags string, timeout time.Duration, logger log.FieldLogger) error {
	return runCopy(ctx, entry, src, tgt, flags, timeout, logger, true)
}

// RunCopyFrom downloads src (remote) to tgt (local) over entry's shared
// master connection (spec.md §4.5).
func RunCopyFrom(ctx context.Context, entry *MasterProfile, src, tgt, flags string, timeout time.Duration, logger log.FieldLogger) error {
	return runCopy(ctx, entry, src, tgt, flags, timeout, logger, false)
}

func runCopy(ctx context.Context, entry *MasterProfile, src, tgt, flags string, timeout time.Duration, logger log.FieldLogger, upload bool) error {
	var cmd command
	var script string

	if entry.Transport == TransportLocal {
		cmd = localCommand(entry)
		script = localCopyScript(entry, src, tgt, flags)
	} else {
		cmd = copySessionCommand(entry)
		if upload {
			script = copyToScript(src, tgt, flags)
		} else {
			script = copyFromScript(src, tgt, flags)
		}
	}

	proc, err := ptyutils.Start(cmd.path, cmd.args, cmd.env, logger)
	if err != nil {
		return translate(NoSuccess("shell not connected to %s: %v", entry.HostStr, err))
	}
	defer proc.Kill()

	if err := runDialog(ctx, proc, entry.Password, entry.CertPasswords, timeout, logger); err != nil {
		return err
	}

	if err := proc.Write([]byte(script)); err != nil {
		return translate(err)
	}

	if err := proc.Wait(); err != nil {
		return translate(err)
	}

	if code := proc.ExitCode(); code != 0 {
		return NoSuccess("file copy failed: %s", proc.Tail(tailBytes))
	}
	return nil
}
