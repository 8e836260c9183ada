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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyKnownSchemas(t *testing.T) {
	transport, _, err := classify("ssh")
	require.NoError(t, err)
	require.Equal(t, TransportSSH, transport)

	transport, _, err = classify("gsiftp")
	require.NoError(t, err)
	require.Equal(t, TransportGSI, transport)

	transport, _, err = classify("fork")
	require.NoError(t, err)
	require.Equal(t, TransportLocal, transport)
}

func TestClassifyUnknownSchemaIsBadParameter(t *testing.T) {
	_, _, err := classify("ftps")
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindBadParameter, kind)
}
