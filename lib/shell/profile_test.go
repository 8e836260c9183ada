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
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saga-project/ptyshell/lib/config"
	"github.com/saga-project/ptyshell/lib/sagasession"
	"github.com/saga-project/ptyshell/lib/sagaurl"
)

// S1. ssh://alice@example.org:2222/, empty session.
func TestBuildProfileS1ExplicitUserAndPort(t *testing.T) {
	u, err := sagaurl.Parse("ssh://alice@example.org:2222/")
	require.NoError(t, err)

	p, err := BuildProfile(u, sagasession.New(), config.Default(), nil)
	require.NoError(t, err)

	require.Equal(t, "alice", p.User)
	require.Equal(t, "alice@example.org:2222", p.HostStr)
	require.Equal(t, TransportSSH, p.Transport)
	require.Contains(t, p.InteractiveArgs, "-t -p 2222 ")
	require.Contains(t, p.FileTransferArgs, "-P 2222 ")
	require.True(t, strings.Contains(p.ControlPath, fmt.Sprintf("%d.alice", os.Getpid())))
}

// S2. sftp://example.org/, a userpass context.
func TestBuildProfileS2UserPassContext(t *testing.T) {
	u, err := sagaurl.Parse("sftp://example.org/")
	require.NoError(t, err)

	sess := sagasession.New(sagasession.Context{
		Kind:     sagasession.ContextUserPass,
		UserID:   "bob",
		UserPass: "sekret",
	})

	p, err := BuildProfile(u, sess, config.Default(), nil)
	require.NoError(t, err)
	require.Equal(t, "bob", p.User)
	require.Equal(t, "sekret", p.Password)
}

// S3. ssh://example.org/ with a userpass context {user_id: bob} followed by
// a URL override of "alice".
func TestBuildProfileS3URLOverridesContextUser(t *testing.T) {
	u, err := sagaurl.Parse("ssh://alice@example.org/")
	require.NoError(t, err)

	sess := sagasession.New(sagasession.Context{
		Kind:   sagasession.ContextUserPass,
		UserID: "bob",
	})

	p, err := BuildProfile(u, sess, config.Default(), nil)
	require.NoError(t, err)
	require.Equal(t, "alice", p.User)
}

// S4. fork://remote.example.org/ — not a local host.
func TestBuildProfileS4LocalSchemaNonLocalHost(t *testing.T) {
	u, err := sagaurl.Parse("fork://remote.example.org/")
	require.NoError(t, err)

	_, err = BuildProfile(u, sagasession.New(), config.Default(), nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindBadParameter, kind)
	require.Contains(t, err.Error(), "fork://")
}

// Property 5: later compatible contexts overwrite fields set by earlier
// ones, before any URL override is applied.
func TestBuildProfileContextOrderingLaterWins(t *testing.T) {
	u, err := sagaurl.Parse("ssh://example.org/")
	require.NoError(t, err)

	sess := sagasession.New(
		sagasession.Context{Kind: sagasession.ContextUserPass, UserID: "bob", UserPass: "first"},
		sagasession.Context{Kind: sagasession.ContextUserPass, UserID: "carol", UserPass: "second"},
	)

	p, err := BuildProfile(u, sess, config.Default(), nil)
	require.NoError(t, err)
	require.Equal(t, "carol", p.User)
	require.Equal(t, "second", p.Password)
}

// Property 7: secure-shell interactive flags carry -t; every tool's
// environment prefix carries TERM=vt100.
func TestBuildProfileSecureShellCarriesTermAndDashT(t *testing.T) {
	u, err := sagaurl.Parse("ssh://example.org/")
	require.NoError(t, err)

	p, err := BuildProfile(u, sagasession.New(), config.Default(), nil)
	require.NoError(t, err)

	require.Contains(t, p.InteractiveArgs, "-t")
	require.Contains(t, p.InteractiveEnv, "TERM=vt100")
	require.Contains(t, p.CopyEnv, "TERM=vt100")
	require.Contains(t, p.FileTransferEnv, "TERM=vt100")
}

// Property 6: control_path contains the current process id and the
// resolved user name, in the "no known user" branch too.
func TestBuildProfileControlPathNoUserBranch(t *testing.T) {
	u, err := sagaurl.Parse("ssh://example.org/")
	require.NoError(t, err)

	p, err := BuildProfile(u, sagasession.New(), config.Default(), nil)
	require.NoError(t, err)

	require.Contains(t, p.ControlPath, fmt.Sprintf("%d", os.Getpid()))
	require.NotEmpty(t, p.User)
	require.Contains(t, p.ControlPath, fmt.Sprintf("%d.%s", os.Getpid(), p.User))
}

func TestBuildProfileGSIX509OnlyForGSITransport(t *testing.T) {
	u, err := sagaurl.Parse("ssh://example.org/")
	require.NoError(t, err)

	sess := sagasession.New(sagasession.Context{
		Kind:      sagasession.ContextX509,
		UserProxy: "/tmp/x509up_u1000",
	})

	p, err := BuildProfile(u, sess, config.Default(), nil)
	require.NoError(t, err)
	require.NotContains(t, p.InteractiveEnv, "X509_PROXY")

	u2, err := sagaurl.Parse("gsissh://example.org/")
	require.NoError(t, err)
	p2, err := BuildProfile(u2, sess, config.Default(), nil)
	require.NoError(t, err)
	require.Contains(t, p2.InteractiveEnv, "X509_PROXY='/tmp/x509up_u1000'")
}
