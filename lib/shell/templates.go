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
	"fmt"
	"strings"
)

// command is one entry of the command template table (spec.md §6):
// an executable path, its argument list, and the environment entries
// to layer on top of the current process environment.
type command struct {
	path string
	args []string
	env  []string
}

func masterCommand(p *MasterProfile) command {
	if p.Transport == TransportLocal {
		return localCommand(p)
	}
	return command{
		path: p.InteractiveExe,
		args: tokenize(p.InteractiveArgs + p.MasterFlags + " " + p.HostStr),
		env:  tokenize(p.InteractiveEnv),
	}
}

func shellCommand(p *MasterProfile) command {
	if p.Transport == TransportLocal {
		return localCommand(p)
	}
	return command{
		path: p.InteractiveExe,
		args: tokenize(p.InteractiveArgs + p.SlaveFlags + " " + p.HostStr),
		env:  tokenize(p.InteractiveEnv),
	}
}

func localCommand(p *MasterProfile) command {
	return command{
		path: p.InteractiveExe,
		args: tokenize(p.InteractiveArgs),
		env:  tokenize(p.InteractiveEnv),
	}
}

// copySessionCommand spawns the slave that will carry the sftp batch
// script for either direction of a copy (spec.md §6: "copy-to"/
// "copy-from" both render to an sftp invocation against the slave
// control socket).
func copySessionCommand(p *MasterProfile) command {
	return command{
		path: p.FileTransferExe,
		args: tokenize(p.FileTransferArgs + p.SlaveFlags + " " + p.HostStr),
		env:  tokenize(p.FileTransferEnv),
	}
}

// copyToScript renders the sftp batch input for an upload (spec.md §6
// "copy-to batch").
func copyToScript(src, tgt, flags string) string {
	return fmt.Sprintf("progress\n put %s%s %s\n exit\n", flagPrefix(flags), src, tgt)
}

// copyFromScript renders the sftp batch input for a download (spec.md
// §6 "copy-from batch").
func copyFromScript(src, tgt, flags string) string {
	return fmt.Sprintf("progress\n get %s%s %s\n exit\n", flagPrefix(flags), src, tgt)
}

// localCopyScript renders the local family's copy batch: the same
// "cd ~ && exec cp ..." line for both directions, since a plain `cp`
// does not care which side is "remote" (spec.md §6 "local copy-to/
// copy-from batch").
func localCopyScript(p *MasterProfile, src, tgt, flags string) string {
	return fmt.Sprintf("cd ~ && exec %s %s%s %s\n", p.CopyExe, flagPrefix(flags), src, tgt)
}

func flagPrefix(flags string) string {
	if flags == "" {
		return ""
	}
	return flags + " "
}

// tokenize splits a flag/env string built by appending "key value "
// fragments into discrete argv/envp entries, honoring single-quoted
// values the way X509_PROXY='<path>' is emitted (spec.md §4.2 step 4).
func tokenize(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
