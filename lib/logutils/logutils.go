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

// Package logutils wires up the logrus conventions used across this
// module: a shared text formatter, and a helper for attaching the
// "component" field the way lib/sshutils/sftp does via
// trace.Component/trace.ComponentFields.
package logutils

import (
	"os"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Initialize installs the shared formatter and level on logrus' standard
// logger. Call once from main(); packages that just need a logger should
// call NewLogger instead of reaching for log.StandardLogger() directly.
func Initialize(level log.Level) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
}

// NewLogger returns a logger tagged with a component field, the same
// shape sftp.Config.setDefaults builds for its transfers.
func NewLogger(component string) *log.Entry {
	return log.WithFields(log.Fields{
		trace.Component: component,
	})
}
