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
	"os/exec"

	"github.com/gravitational/trace"
)

// lookPath resolves name to an absolute executable path, the Go stand-in
// for the source's saga.utils.which helper (spec.md §1, treated as
// "assumed available" there but owned here since nothing else provides
// it).
func lookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", trace.Wrap(err, "resolving %q", name)
	}
	return path, nil
}
