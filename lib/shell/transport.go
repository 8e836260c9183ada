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

import "os"

// TransportType is one of the three transport families a schema maps to
// (spec.md §3).
type TransportType string

const (
	TransportLocal TransportType = "local"
	TransportSSH   TransportType = "secure-shell"
	TransportGSI   TransportType = "gsi-secure-shell"
)

var schemasLocal = map[string]bool{"sh": true, "fork": true, "local": true, "file": true}
var schemasSSH = map[string]bool{"ssh": true, "scp": true, "sftp": true}
var schemasGSI = map[string]bool{"gsissh": true, "gsiscp": true, "gsisftp": true, "gsiftp": true}

// tools is the set of resolved executables for one transport family
// (spec.md §4.1): interactive shell launcher, copy tool, file-transfer
// tool.
type tools struct {
	interactive  string
	copy         string
	fileTransfer string
}

// classify maps a (lowercased) URL schema to its transport family and
// resolves its toolset. Unknown schemas fail with BadParameter (spec.md
// §8 property 2).
func classify(schema string) (TransportType, tools, error) {
	switch {
	case schemasLocal[schema]:
		t, err := localTools()
		return TransportLocal, t, err

	case schemasSSH[schema]:
		t, err := resolveTools("ssh", "scp", "sftp")
		return TransportSSH, t, err

	case schemasGSI[schema]:
		t, err := resolveTools("gsissh", "gsiscp", "gsisftp")
		return TransportGSI, t, err

	default:
		return "", tools{}, BadParameter("cannot handle schema %q://", schema)
	}
}

func resolveTools(interactive, copyTool, fileTransfer string) (tools, error) {
	iPath, err := lookPath(interactive)
	if err != nil {
		return tools{}, err
	}
	cPath, err := lookPath(copyTool)
	if err != nil {
		return tools{}, err
	}
	fPath, err := lookPath(fileTransfer)
	if err != nil {
		return tools{}, err
	}
	return tools{interactive: iPath, copy: cPath, fileTransfer: fPath}, nil
}

// localTools resolves the user's login shell (from $SHELL, falling back
// to a minimal shell) plus a local copy utility (spec.md §4.1, §6).
func localTools() (tools, error) {
	shellExe := os.Getenv("SHELL")
	if shellExe == "" {
		shellExe = "sh"
	}
	shPath, err := lookPath(shellExe)
	if err != nil {
		return tools{}, err
	}
	cpPath, err := lookPath("cp")
	if err != nil {
		return tools{}, err
	}
	return tools{interactive: shPath, copy: cpPath, fileTransfer: cpPath}, nil
}
