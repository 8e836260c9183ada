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
	"fmt"
	"strings"

	"github.com/gravitational/trace"
)

// ErrorKind tags a Error with one of the taxonomy entries from spec.md
// §7. Plain Go errors returned from dependencies (a failed dial, a
// regexp timeout) carry no kind and pass through the translator
// unchanged.
type ErrorKind string

const (
	KindBadParameter         ErrorKind = "bad_parameter"
	KindAuthenticationFailed ErrorKind = "authentication_failed"
	KindAuthorizationFailed  ErrorKind = "authorization_failed"
	KindPermissionDenied     ErrorKind = "permission_denied"
	KindNoSuccess            ErrorKind = "no_success"
	KindIncorrectState       ErrorKind = "incorrect_state"
)

// Error is a wrapped error carrying one ErrorKind. It satisfies the
// standard error interface and unwraps to the error it wraps (a
// trace.Error for errors built by the constructors below), so
// errors.Is/As keep working on it.
type Error struct {
	Kind ErrorKind
	err  error
}

func (e *Error) Error() string { return e.err.Error() }
func (e *Error) Unwrap() error { return e.err }

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, err: err}
}

// BadParameter reports an unsupported schema, a non-local host for a
// local schema, or an unresolvable host (spec.md §4.1, §4.2).
func BadParameter(format string, args ...interface{}) error {
	return newError(KindBadParameter, trace.BadParameter(format, args...))
}

// AuthenticationFailed reports a prompt for a credential the caller
// never supplied, or an unparseable passphrase prompt (spec.md §4.4).
func AuthenticationFailed(format string, args ...interface{}) error {
	return newError(KindAuthenticationFailed, trace.Wrap(fmt.Errorf(format, args...)))
}

// AuthorizationFailed reports a generic "auth" failure surfaced by the
// error translator (spec.md §4.6).
func AuthorizationFailed(format string, args ...interface{}) error {
	return newError(KindAuthorizationFailed, trace.Wrap(fmt.Errorf(format, args...)))
}

// PermissionDenied reports a message indicating access denial (spec.md
// §4.6).
func PermissionDenied(format string, args ...interface{}) error {
	return newError(KindPermissionDenied, trace.Wrap(fmt.Errorf(format, args...)))
}

// NoSuccess reports that a master could not be established, a copy
// exited non-zero, or an otherwise unclassified failure (spec.md §7).
func NoSuccess(format string, args ...interface{}) error {
	return newError(KindNoSuccess, trace.Wrap(fmt.Errorf(format, args...)))
}

// IncorrectState reports that a previously live master could not be
// recovered (spec.md §4.3).
func IncorrectState(format string, args ...interface{}) error {
	return newError(KindIncorrectState, trace.Wrap(fmt.Errorf(format, args...)))
}

// KindOf extracts the ErrorKind from err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// translate is the error translator of spec.md §4.6, applied to every
// error raised by the dialog engine and by master/slave spawn. Non-Error
// values pass through unchanged; an Error already carrying a kind other
// than KindNoSuccess ("this seems to have a specific cause already")
// also passes through unchanged. Only a generic failure gets
// reclassified, by lowercased substring, in the fixed precedence order
// the spec documents: "auth" before "pass" so "authentication" never
// falls into the password bucket.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var de *Error
	if !errors.As(err, &de) || de.Kind != KindNoSuccess {
		return err
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "auth"):
		return newError(KindAuthorizationFailed, trace.Wrap(err))
	case strings.Contains(msg, "pass"):
		return newError(KindAuthenticationFailed, trace.Wrap(err))
	case strings.Contains(msg, "ssh_exchange_identification"):
		return newError(KindAuthenticationFailed, fmt.Errorf("too frequent login attempts, or sshd misconfiguration: %w", err))
	case strings.Contains(msg, "denied"):
		return newError(KindPermissionDenied, trace.Wrap(err))
	case strings.Contains(msg, "shared connection"):
		return newError(KindNoSuccess, fmt.Errorf("insufficient system resources: %w", err))
	case strings.Contains(msg, "pty allocation"):
		return newError(KindNoSuccess, fmt.Errorf("insufficient system resources: %w", err))
	default:
		return err
	}
}
