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

// Package sagasession models the authentication contexts a caller attaches
// to a Session. The source represents these as duck-typed objects
// (`context.attribute_exists("user_cert")` and friends); this package
// re-models them as a tagged variant per spec.md's design notes, so the
// profile builder can switch on Kind instead of probing attributes.
package sagasession

// ContextKind tags which authentication mechanism a Context carries.
type ContextKind string

const (
	// ContextSSHKey is an ssh-type context: identity, optionally a
	// certificate/keyfile and its passphrase.
	ContextSSHKey ContextKind = "ssh"
	// ContextUserPass is a plain username/password context.
	ContextUserPass ContextKind = "userpass"
	// ContextX509 is a grid proxy certificate context, meaningful only
	// for the gsi transport family.
	ContextX509 ContextKind = "x509"
)

// Context is one authentication context a Session carries. Only the
// fields relevant to Kind are populated; the others are zero.
type Context struct {
	Kind ContextKind

	// UserID is the identity to authenticate as (ssh, userpass).
	UserID string
	// UserCert is a path to a private key / certificate file (ssh).
	UserCert string
	// UserPass is a password: either the userpass password, or the
	// passphrase protecting UserCert (ssh).
	UserPass string
	// UserProxy is a path to a grid proxy certificate (x509).
	UserProxy string
}

// Session is an ordered sequence of authentication contexts. Order is
// significant: the profile builder applies contexts in iteration order,
// and later contexts overwrite fields set by earlier ones (spec.md §8
// property 5, open question (c)).
type Session struct {
	Contexts []Context
}

// New returns a session holding contexts in the given order. Called with
// no contexts it returns an empty session, equivalent to the source's
// `saga.Session(default=True)` fallback when the caller supplies none.
func New(contexts ...Context) *Session {
	return &Session{Contexts: contexts}
}
