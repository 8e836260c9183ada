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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// Property 9: a message containing both "authentication" and "password"
// classifies as AuthorizationFailed, because the "auth" substring test
// fires before the "pass" one. Only a generic NoSuccess domain error gets
// reclassified this way (spec.md §4.6: non-domain exceptions pass through
// unchanged).
func TestTranslateAuthBeforePassPrecedence(t *testing.T) {
	err := translate(NoSuccess("authentication failed: bad password"))
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindAuthorizationFailed, kind)
}

func TestTranslateClassifiesKnownSubstrings(t *testing.T) {
	cases := []struct {
		msg  string
		kind ErrorKind
	}{
		{"permission denied", KindPermissionDenied},
		{"ssh_exchange_identification: read error", KindAuthenticationFailed},
		{"mux_client_request_session: session request failed: channel 1: open failed: administratively prohibited: open failed: shared connection limit exceeded", KindNoSuccess},
		{"pty allocation request failed", KindNoSuccess},
	}
	for _, c := range cases {
		kind, ok := KindOf(translate(NoSuccess(c.msg)))
		require.True(t, ok, c.msg)
		require.Equal(t, c.kind, kind, c.msg)
	}
}

// Non-domain errors are not domain exceptions at all, so they must pass
// through translate unchanged, even when their message contains a
// substring the classifier would otherwise act on.
func TestTranslateLeavesNonDomainErrorUnchanged(t *testing.T) {
	plain := errors.New("authentication failed: bad password")
	out := translate(plain)
	require.Same(t, plain, out)
	_, ok := KindOf(out)
	require.False(t, ok)
}

func TestTranslatePassesThroughSpecificKind(t *testing.T) {
	original := AuthenticationFailed("prompted for unknown password")
	out := translate(original)
	kind, ok := KindOf(out)
	require.True(t, ok)
	require.Equal(t, KindAuthenticationFailed, kind)
	require.Same(t, original, out)
}

func TestTranslateReclassifiesGenericNoSuccess(t *testing.T) {
	original := NoSuccess("authentication required")
	out := translate(original)
	kind, ok := KindOf(out)
	require.True(t, ok)
	require.Equal(t, KindAuthorizationFailed, kind)
}

func TestTranslateLeavesPlainErrorUnclassifiedWhenNoSubstringMatches(t *testing.T) {
	plain := errors.New("connection reset by peer")
	out := translate(plain)
	_, ok := KindOf(out)
	require.False(t, ok)
}
