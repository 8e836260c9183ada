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

// Command shellctl drives the PTY shell factory end to end: it resolves
// a target URL to a master connection and runs a shell or a copy
// against it.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gravitational/kingpin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/saga-project/ptyshell/lib/logutils"
	"github.com/saga-project/ptyshell/lib/sagasession"
	"github.com/saga-project/ptyshell/lib/sagaurl"
	"github.com/saga-project/ptyshell/lib/shell"
)

func main() {
	logutils.Initialize(log.InfoLevel)
	logger := logutils.NewLogger("shellctl")

	app := kingpin.New("shellctl", "Drive shell/copy operations over the PTY shell factory")
	app.HelpFlag.Short('h')

	shellCmd := app.Command("shell", "Open a shell against a target and wait for it to exit (the shell is not attached to this terminal)")
	shellTarget := shellCmd.Arg("target", "target URL, e.g. ssh://user@host:22/").Required().String()
	shellUser := shellCmd.Flag("user", "override the session context's username").String()

	copyToCmd := app.Command("copy-to", "Upload a local file to a remote target")
	copyToSrc := copyToCmd.Arg("src", "local source path").Required().String()
	copyToTarget := copyToCmd.Arg("target", "target URL").Required().String()

	copyFromCmd := app.Command("copy-from", "Download a remote file to a local path")
	copyFromTarget := copyFromCmd.Arg("target", "target URL").Required().String()
	copyFromDst := copyFromCmd.Arg("dst", "local destination path").Required().String()

	findCmd := app.Command("find", "List entries under a target's filesystem root")
	findTarget := findCmd.Arg("target", "target URL").Required().String()
	findPattern := findCmd.Arg("pattern", "name pattern, a regular expression").Default(".*").String()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx := context.Background()
	factory := shell.GetFactory()

	switch command {
	case shellCmd.FullCommand():
		if err := runShell(ctx, factory, *shellTarget, *shellUser, logger); err != nil {
			exit(err)
		}

	case copyToCmd.FullCommand():
		if err := runCopyTo(ctx, factory, *copyToSrc, *copyToTarget, logger); err != nil {
			exit(err)
		}

	case copyFromCmd.FullCommand():
		if err := runCopyFrom(ctx, factory, *copyFromTarget, *copyFromDst, logger); err != nil {
			exit(err)
		}

	case findCmd.FullCommand():
		if err := runFind(ctx, factory, *findTarget, *findPattern, logger); err != nil {
			exit(err)
		}
	}
}

func exit(err error) {
	kind, _ := shell.KindOf(err)
	fmt.Fprintf(os.Stderr, "shellctl: %v (%v)\n", err, kind)
	os.Exit(1)
}

func resolve(u string, user string) (*sagaurl.URL, *sagasession.Session, error) {
	parsed, err := sagaurl.Parse(u)
	if err != nil {
		return nil, nil, err
	}
	if user != "" {
		parsed.Username = user
	}
	return parsed, sagasession.New(), nil
}

func runShell(ctx context.Context, factory *shell.Factory, target, user string, logger log.FieldLogger) error {
	u, sess, err := resolve(target, user)
	if err != nil {
		return err
	}

	entry, err := factory.Initialize(ctx, u, sess, logger)
	if err != nil {
		return err
	}

	proc, err := shell.RunShell(ctx, entry, 2*time.Second, logger)
	if err != nil {
		return err
	}
	defer proc.Kill()

	fmt.Fprintf(os.Stdout, "connected to %s, waiting for exit\n", entry.HostStr)
	return proc.Wait()
}

func runCopyTo(ctx context.Context, factory *shell.Factory, src, target string, logger log.FieldLogger) error {
	u, sess, err := resolve(target, "")
	if err != nil {
		return err
	}

	entry, err := factory.Initialize(ctx, u, sess, logger)
	if err != nil {
		return err
	}

	return shell.RunCopyTo(ctx, entry, src, u.Path, "", 2*time.Second, logger)
}

func runCopyFrom(ctx context.Context, factory *shell.Factory, target, dst string, logger log.FieldLogger) error {
	u, sess, err := resolve(target, "")
	if err != nil {
		return err
	}

	entry, err := factory.Initialize(ctx, u, sess, logger)
	if err != nil {
		return err
	}

	return shell.RunCopyFrom(ctx, entry, u.Path, dst, "", 2*time.Second, logger)
}

func runFind(ctx context.Context, factory *shell.Factory, target, pattern string, logger log.FieldLogger) error {
	u, sess, err := resolve(target, "")
	if err != nil {
		return err
	}

	entry, err := factory.Initialize(ctx, u, sess, logger)
	if err != nil {
		return err
	}

	// find drives a library SFTP client alongside the PTY master rather
	// than through it, reusing the same password credential; strict
	// host-key checking is left to the shell/copy subcommands' ssh CLI.
	sshConfig := &ssh.ClientConfig{
		User:            entry.User,
		Auth:            []ssh.AuthMethod{ssh.Password(entry.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	}

	dir, err := shell.OpenDirectory(ctx, entry, sshConfig, logger)
	if err != nil {
		return err
	}
	defer dir.Close()

	urls, _, err := dir.Find(ctx, pattern, shell.ModeSynchronous)
	if err != nil {
		return err
	}
	for _, u := range urls {
		fmt.Fprintln(os.Stdout, u.String())
	}
	return nil
}
