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

// Package config loads the small set of tunables the shell factory needs
// beyond what a single (URL, Session) call site provides: the PTY dialog
// timeout, the control-socket directory, and the hostnames considered
// "local" for the sh/fork/local/file transport family.
package config

import (
	"os"
	"time"

	"github.com/gravitational/trace"
	"gopkg.in/yaml.v2"
)

// defaultPTYTimeout is the per-attempt prompt-match timeout, spec.md §4.4.
const defaultPTYTimeout = 2 * time.Second

// defaultControlDir mirrors the source's "~/.saga/adaptors/shell" prefix
// for the control socket path template (spec.md §4.2 step 8).
const defaultControlDir = "~/.saga/adaptors/shell"

// Settings holds the factory's tunables. Zero value is not usable;
// callers should start from Default().
type Settings struct {
	// PTYTimeout bounds each prompt-match attempt in the dialog engine.
	PTYTimeout time.Duration `yaml:"pty_timeout"`
	// ControlDir is the directory control-socket paths are generated
	// under.
	ControlDir string `yaml:"control_dir"`
	// LocalAliases are hostnames/addresses, besides the machine's own
	// hostname and loopback addresses, that count as "local" when the
	// classifier validates a local-family URL (spec.md §4.2 step 3).
	LocalAliases []string `yaml:"local_aliases"`
}

// Default returns the built-in settings, matching the constants the
// original Python module hard-codes.
func Default() *Settings {
	return &Settings{
		PTYTimeout:   defaultPTYTimeout,
		ControlDir:   defaultControlDir,
		LocalAliases: []string{"localhost", "127.0.0.1", "::1"},
	}
}

// Load reads YAML settings from path, falling back to Default() for any
// field left unset in the file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, trace.Wrap(err, "parsing %v", path)
	}
	return s, nil
}
