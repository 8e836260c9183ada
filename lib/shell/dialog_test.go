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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saga-project/ptyshell/lib/ptyutils"
)

// S5. Dialog fed [b"Password: ", b"alice@host:~$ "] with password="".
// Expect AuthenticationFailed("prompted for unknown password …").
func TestRunDialogUnknownPasswordFails(t *testing.T) {
	proc, err := ptyutils.Start("/bin/sh", []string{"-c", "printf 'Password: '; sleep 1; printf 'alice@host:~$ '"}, nil, nil)
	require.NoError(t, err)
	defer proc.Kill()

	err = runDialog(context.Background(), proc, "", nil, time.Second, nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindAuthenticationFailed, kind)
	require.Contains(t, err.Error(), "prompted for unknown password")
}

func TestRunDialogWritesKnownPasswordAndReachesPrompt(t *testing.T) {
	proc, err := ptyutils.Start("/bin/sh", []string{"-c", "printf 'Password: '; read pw; printf '%s\\n' \"got:$pw\"; printf 'bob@host:~$ '"}, nil, nil)
	require.NoError(t, err)
	defer proc.Kill()

	err = runDialog(context.Background(), proc, "sekret", nil, time.Second, nil)
	require.NoError(t, err)
	require.Contains(t, string(proc.Cache()), "got:sekret")
}

func TestRunDialogAnswersHostKeyConfirmationAndPassphrase(t *testing.T) {
	script := `printf "The authenticity of host 'x' can't be established.\n"
printf "Are you sure you want to continue connecting (yes/no)? "
read reply
printf "Enter passphrase for key '/home/alice/.ssh/id_rsa': "
read pw
printf '%s\n' "phrase:$pw"
printf 'alice@host:~$ '
`
	proc, err := ptyutils.Start("/bin/sh", []string{"-c", script}, nil, nil)
	require.NoError(t, err)
	defer proc.Kill()

	certPasswords := map[string]string{"/home/alice/.ssh/id_rsa": "mypass"}
	err = runDialog(context.Background(), proc, "", certPasswords, time.Second, nil)
	require.NoError(t, err)
	require.Contains(t, string(proc.Cache()), "phrase:mypass")
}

func TestExtractCertName(t *testing.T) {
	name, ok := extractCertName("Enter passphrase for key '/home/alice/.ssh/id_rsa': ")
	require.True(t, ok)
	require.Equal(t, "/home/alice/.ssh/id_rsa", name)

	_, ok = extractCertName("no quotes here")
	require.False(t, ok)
}
