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
	"net"
	"os"
	"strings"
)

// isLocalHost reports whether host denotes the machine the process runs
// on: the source's saga.utils.misc.host_is_local. Besides the hostname
// and loopback addresses, any alias from Settings.LocalAliases counts,
// letting deployments register additional names for the same box.
func isLocalHost(host string, aliases []string) bool {
	lower := strings.ToLower(host)

	if lower == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return true
	}

	if hostname, err := os.Hostname(); err == nil && strings.EqualFold(hostname, host) {
		return true
	}

	for _, alias := range aliases {
		if strings.EqualFold(alias, host) {
			return true
		}
	}
	return false
}

// isResolvableHost reports whether host can be resolved to at least one
// address: the source's saga.utils.misc.host_is_valid (spec.md §4.2
// step 4, "require the host to be resolvable").
func isResolvableHost(host string) bool {
	if host == "" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return true
	}
	_, err := net.LookupHost(host)
	return err == nil
}
