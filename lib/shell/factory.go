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

// Package shell implements the PTY shell factory: spec.md's transport
// classifier, master profile builder, master registry, PTY dialog
// engine, operation dispatcher, and error translator.
package shell

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/saga-project/ptyshell/lib/config"
	"github.com/saga-project/ptyshell/lib/logutils"
	"github.com/saga-project/ptyshell/lib/ptyutils"
	"github.com/saga-project/ptyshell/lib/sagasession"
	"github.com/saga-project/ptyshell/lib/sagaurl"
)

// Factory is the PTY shell factory (spec.md §2): it classifies targets
// and maintains the master registry. Shell and copy operations against
// the masters it returns are the package-level RunShell, RunCopyTo and
// RunCopyFrom; listing is Directory, opened with OpenDirectory.
type Factory struct {
	reg      *registry
	settings *config.Settings
	logger   log.FieldLogger
}

var (
	singletonOnce sync.Once
	singleton     *Factory
)

// GetFactory returns the process-wide Factory singleton (spec.md §9:
// "declared a singleton in the source"; re-expressed here as a
// lazily-initialized shared instance behind sync.Once rather than
// lock-free global state).
func GetFactory() *Factory {
	singletonOnce.Do(func() {
		singleton = newFactory(config.Default(), logutils.NewLogger("PTYShellFactory"))
	})
	return singleton
}

func newFactory(settings *config.Settings, logger log.FieldLogger) *Factory {
	return &Factory{reg: newRegistry(), settings: settings, logger: logger}
}

// NewFactory builds a standalone Factory with its own registry, for
// callers (tests, or processes that want isolation) that should not
// share the process-wide singleton.
func NewFactory(settings *config.Settings, logger log.FieldLogger) *Factory {
	if settings == nil {
		settings = config.Default()
	}
	if logger == nil {
		logger = logutils.NewLogger("PTYShellFactory")
	}
	return newFactory(settings, logger)
}

// Initialize resolves (url, session) to a live MasterEntry, spawning and
// dialog-initializing a new master connection on first use, or
// returning the cached one (spec.md §4.2, §4.3). A cached master whose
// PTY has exited is not revived: it is dropped from the registry and
// IncorrectState is returned, so the next call creates a new master. Two calls that resolve to the same (host, user, transport)
// return the identical cached *MasterProfile (spec.md §8 property 1).
func (f *Factory) Initialize(ctx context.Context, u *sagaurl.URL, sess *sagasession.Session, logger log.FieldLogger) (*MasterProfile, error) {
	if logger == nil {
		logger = f.logger
	}

	profile, err := BuildProfile(u, sess, f.settings, logger)
	if err != nil {
		return nil, translate(err)
	}

	key := registryKey{host: profile.HostStr, user: profile.User, transport: profile.Transport}

	keyLock := f.reg.lockFor(key)
	keyLock.Lock()
	defer keyLock.Unlock()

	if existing, ok := f.reg.get(key); ok {
		if !existing.PTY.Alive(true) {
			f.reg.delete(key)
			return nil, translate(IncorrectState("lost shell connection to %s", existing.HostStr))
		}
		return existing, nil
	}

	cmd := masterCommand(profile)
	logger.Debugf("open master pty for [%s] [%s] %s: %s %v", profile.Transport, profile.HostStr, profile.User, cmd.path, cmd.args)

	proc, err := ptyutils.Start(cmd.path, cmd.args, cmd.env, logger)
	if err != nil {
		return nil, translate(NoSuccess("shell not connected to %s: %v", profile.HostStr, err))
	}
	if !proc.Alive(false) {
		proc.Kill()
		return nil, translate(NoSuccess("shell not connected to %s", profile.HostStr))
	}

	if err := runDialog(ctx, proc, profile.Password, profile.CertPasswords, f.settings.PTYTimeout, logger); err != nil {
		proc.Kill()
		return nil, err
	}

	profile.PTY = proc
	f.reg.set(key, profile)
	return profile, nil
}
