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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistryGetSetDelete(t *testing.T) {
	r := newRegistry()
	key := registryKey{host: "example.org", user: "alice", transport: TransportSSH}

	_, ok := r.get(key)
	require.False(t, ok)

	entry := &MasterProfile{HostStr: "alice@example.org"}
	r.set(key, entry)

	got, ok := r.get(key)
	require.True(t, ok)
	require.Same(t, entry, got)

	r.delete(key)
	_, ok = r.get(key)
	require.False(t, ok)
}

// Property 1 (registry half): two lookups that resolve to the same key
// must converge on one creation when racing, not one master per goroutine.
func TestRegistryLockForSerializesSameKeyCreation(t *testing.T) {
	r := newRegistry()
	key := registryKey{host: "example.org", user: "alice", transport: TransportSSH}

	var created int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock := r.lockFor(key)
			lock.Lock()
			defer lock.Unlock()

			if _, ok := r.get(key); ok {
				return
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&created, 1)
			r.set(key, &MasterProfile{HostStr: "alice@example.org"})
		}()
	}

	wg.Wait()
	require.Equal(t, int32(1), created)
}

func TestRegistryLockForDifferentKeysDoNotSerialize(t *testing.T) {
	r := newRegistry()
	keyA := registryKey{host: "a.example.org", user: "alice", transport: TransportSSH}
	keyB := registryKey{host: "b.example.org", user: "alice", transport: TransportSSH}

	lockA := r.lockFor(keyA)
	lockB := r.lockFor(keyB)
	require.NotSame(t, lockA, lockB)

	lockA.Lock()
	defer lockA.Unlock()

	done := make(chan struct{})
	go func() {
		lockB.Lock()
		lockB.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lockB should not be blocked by lockA held on a different key")
	}
}
