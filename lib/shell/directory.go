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
	"fmt"
	"path"
	"regexp"

	"github.com/google/uuid"
	"github.com/pkg/sftp"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/saga-project/ptyshell/lib/sagaurl"
)

// Mode selects how Directory.Find and Directory.FindReplicas deliver
// their result: ModeSynchronous blocks for the full answer;
// ModeAsynchronous and ModeTask (spec.md §6's third variant) both return
// a Task at once, whose Wait blocks for the result. The two non-blocking
// modes behave the same.
type Mode int

const (
	ModeSynchronous Mode = iota
	ModeAsynchronous
	ModeTask
)

// Task is the handle returned for Mode != ModeSynchronous (spec.md §6
// "Upstream consumer interface"). ID lets a caller correlate Task log
// lines across a long-running listing.
type Task struct {
	ID     uuid.UUID
	result []*sagaurl.URL
	err    error
	done   chan struct{}
}

// Wait blocks until the task's listing completes and returns its result.
func (t *Task) Wait() ([]*sagaurl.URL, error) {
	<-t.done
	return t.result, t.err
}

func (t *Task) finish(urls []*sagaurl.URL, err error) {
	t.result, t.err = urls, err
	close(t.done)
}

// Directory is the adaptor-facing half of the replica/logical-directory
// collaborator's contract (spec.md §6, out of scope above this layer):
// it lists entries under a MasterEntry's filesystem root over a
// structured SFTP client rather than scraping `find` output through the
// PTY (SPEC_FULL.md §3).
type Directory struct {
	entry  *MasterProfile
	client *sftp.Client
	root   string
	logger log.FieldLogger
}

// OpenDirectory dials the host and port of entry.FSRoot over
// golang.org/x/crypto/ssh and
// opens an SFTP session against it, independent of the PTY master the
// factory already holds for entry (the factory's control socket is an
// OpenSSH concept the library client cannot attach to).
func OpenDirectory(ctx context.Context, entry *MasterProfile, sshConfig *ssh.ClientConfig, logger log.FieldLogger) (*Directory, error) {
	if entry.Transport == TransportLocal {
		return nil, BadParameter("directory listing is not supported over the local transport")
	}

	client, err := ssh.Dial("tcp", entry.FSRoot.HostPort(), sshConfig)
	if err != nil {
		return nil, translate(NoSuccess("could not dial %s for directory listing: %v", entry.FSRoot.HostPort(), err))
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, translate(NoSuccess("could not open sftp session to %s: %v", entry.FSRoot.HostPort(), err))
	}

	return &Directory{entry: entry, client: sftpClient, root: entry.FSRoot.Path, logger: logger}, nil
}

// Close releases the underlying SFTP client and its SSH connection.
func (d *Directory) Close() error {
	return d.client.Close()
}

// Find lists entries under the directory's root whose name matches
// namePattern (a regular expression), per the generic namespace
// find(name_pattern, flags, ttype) half of spec.md §6's upstream
// consumer interface.
func (d *Directory) Find(ctx context.Context, namePattern string, mode Mode) ([]*sagaurl.URL, *Task, error) {
	return d.findReplicas(ctx, namePattern, "", mode)
}

// FindReplicas lists entries under the directory's root whose name
// matches namePattern and whose rendered attributes match attrPattern,
// per spec.md §6's attribute-qualified half of the upstream consumer
// interface. An empty attrPattern is rejected: callers with no
// attribute predicate should call Find instead, matching the original's
// `if attr_pattern: find_replicas(...) else: find(...)` dispatch.
func (d *Directory) FindReplicas(ctx context.Context, namePattern, attrPattern string, mode Mode) ([]*sagaurl.URL, *Task, error) {
	if attrPattern == "" {
		return nil, nil, BadParameter("find_replicas requires a non-empty attribute pattern")
	}
	return d.findReplicas(ctx, namePattern, attrPattern, mode)
}

func (d *Directory) findReplicas(ctx context.Context, namePattern, attrPattern string, mode Mode) ([]*sagaurl.URL, *Task, error) {
	nameRe, err := regexp.Compile(namePattern)
	if err != nil {
		return nil, nil, translate(BadParameter("invalid name pattern %q: %v", namePattern, err))
	}

	var attrRe *regexp.Regexp
	if attrPattern != "" {
		attrRe, err = regexp.Compile(attrPattern)
		if err != nil {
			return nil, nil, translate(BadParameter("invalid attribute pattern %q: %v", attrPattern, err))
		}
	}

	if mode == ModeSynchronous {
		bar := progressbar.Default(-1, fmt.Sprintf("listing %s", d.root))
		defer bar.Close()
		urls, err := d.list(ctx, nameRe, attrRe, bar)
		return urls, nil, err
	}

	task := &Task{ID: uuid.New(), done: make(chan struct{})}
	if d.logger != nil {
		d.logger.Debugf("find task %s: listing %s (name=%q attr=%q)", task.ID, d.root, namePattern, attrPattern)
	}

	go func() {
		urls, err := d.list(ctx, nameRe, attrRe, nil)
		task.finish(urls, err)
	}()

	return nil, task, nil
}

// list walks d.root and collects entries matching nameRe (and, if set,
// attrRe against the entry's mode string, standing in for the
// "attribute pattern" of the original's metadata-backed replicas). bar,
// if non-nil, is advanced once per directory entry visited.
func (d *Directory) list(ctx context.Context, nameRe, attrRe *regexp.Regexp, bar *progressbar.ProgressBar) ([]*sagaurl.URL, error) {
	entries, err := d.client.ReadDir(d.root)
	if err != nil {
		return nil, translate(NoSuccess("could not list %s: %v", d.root, err))
	}

	var out []*sagaurl.URL
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return out, translate(ctx.Err())
		default:
		}

		if bar != nil {
			bar.Add(1)
		}

		if !nameRe.MatchString(entry.Name()) {
			continue
		}
		if attrRe != nil && !attrRe.MatchString(entry.Mode().String()) {
			continue
		}

		out = append(out, d.entry.FSRoot.WithPath(path.Join(d.root, entry.Name())))
	}
	return out, nil
}
