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
	"os/user"

	log "github.com/sirupsen/logrus"

	"github.com/saga-project/ptyshell/lib/config"
	"github.com/saga-project/ptyshell/lib/ptyutils"
	"github.com/saga-project/ptyshell/lib/sagasession"
	"github.com/saga-project/ptyshell/lib/sagaurl"
)

// MasterProfile is the fully resolved command-line, environment, and
// credential bundle for one (host, user, transport) triple (spec.md
// §3). Its fields are plain strings rather than structured flag lists
// because the underlying tools (ssh/scp/sftp) expect literal
// "-o Key=Value"-shaped arguments, including %h/%p placeholders the tool
// itself expands — not this package.
type MasterProfile struct {
	Schema    string
	Transport TransportType
	HostStr   string
	User      string
	Password  string

	CertPasswords map[string]string
	CtxList       []sagasession.Context

	InteractiveExe  string
	CopyExe         string
	FileTransferExe string

	InteractiveEnv  string
	CopyEnv         string
	FileTransferEnv string

	InteractiveArgs  string
	CopyArgs         string
	FileTransferArgs string

	ControlPath string
	MasterFlags string
	SlaveFlags  string

	FSRoot *sagaurl.URL

	// PTY is populated once this profile's master connection has been
	// spawned and dialog-initialized; nil beforehand. A MasterEntry
	// (spec.md §3) is a MasterProfile for which this invariant holds.
	PTY *ptyutils.Process
}

// BuildProfile assembles a MasterProfile from (url, session), per
// spec.md §4.2. It does not spawn anything; it is pure except for the
// host-resolution and executable-lookup system calls the classifier and
// host checks make.
func BuildProfile(u *sagaurl.URL, sess *sagasession.Session, settings *config.Settings, logger log.FieldLogger) (*MasterProfile, error) {
	if sess == nil {
		sess = sagasession.New()
	}
	if settings == nil {
		settings = config.Default()
	}

	transport, toolset, err := classify(u.Schema)
	if err != nil {
		return nil, err
	}

	p := &MasterProfile{
		Schema:        u.Schema,
		Transport:     transport,
		HostStr:       u.Host,
		CertPasswords: map[string]string{},

		InteractiveExe:  toolset.interactive,
		CopyExe:         toolset.copy,
		FileTransferExe: toolset.fileTransfer,
	}

	switch transport {
	case TransportLocal:
		if err := p.buildLocal(u, settings); err != nil {
			return nil, err
		}
	default:
		if err := p.buildRemote(u, sess, settings); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *MasterProfile) buildLocal(u *sagaurl.URL, settings *config.Settings) error {
	if !isLocalHost(u.Host, settings.LocalAliases) {
		return BadParameter("expect local host for '%s://', not '%s'", u.Schema, u.Host)
	}

	p.InteractiveEnv = "TERM=vt100"
	p.CopyEnv = "TERM=vt100"
	p.FileTransferEnv = "TERM=vt100"
	p.InteractiveArgs = "-l -i "
	p.FSRoot = u.WithPath("/")

	if u.Username != "" {
		p.User = u.Username
	} else {
		current, err := user.Current()
		if err != nil {
			return NoSuccess("could not resolve current user: %v", err)
		}
		p.User = current.Username
	}

	return nil
}

func (p *MasterProfile) buildRemote(u *sagaurl.URL, sess *sagasession.Session, settings *config.Settings) error {
	if !isResolvableHost(u.Host) {
		return BadParameter("could not resolve host %q", u.Host)
	}

	p.InteractiveEnv = "TERM=vt100 "
	p.CopyEnv = "TERM=vt100 "
	p.FileTransferEnv = "TERM=vt100 "
	p.InteractiveArgs = "-t "

	// Contexts are applied in iteration order; a later compatible
	// context overwrites fields an earlier one set, before any URL
	// override is applied (spec.md §8 property 5, open question (c)).
	for _, ctx := range sess.Contexts {
		switch ctx.Kind {
		case sagasession.ContextSSHKey:
			if ctx.UserID != "" {
				p.User = ctx.UserID
			}
			if ctx.UserCert != "" {
				p.InteractiveArgs += fmt.Sprintf("-i %s ", ctx.UserCert)
				p.CopyArgs += fmt.Sprintf("-i %s ", ctx.UserCert)
				p.FileTransferArgs += fmt.Sprintf("-i %s ", ctx.UserCert)
				if ctx.UserPass != "" {
					p.CertPasswords[ctx.UserCert] = ctx.UserPass
				}
			}
			p.CtxList = append(p.CtxList, ctx)

		case sagasession.ContextUserPass:
			if ctx.UserID != "" {
				p.User = ctx.UserID
			}
			if ctx.UserPass != "" {
				p.Password = ctx.UserPass
			}
			p.CtxList = append(p.CtxList, ctx)

		case sagasession.ContextX509:
			if p.Transport != TransportGSI {
				continue
			}
			if ctx.UserProxy != "" {
				env := fmt.Sprintf("X509_PROXY='%s' ", ctx.UserProxy)
				p.InteractiveEnv += env
				p.CopyEnv += env
				p.FileTransferEnv += env
				p.CtxList = append(p.CtxList, ctx)
			}
		}
	}

	// URL-supplied credentials take precedence over anything a context
	// set (spec.md §4.2 step 5, §8 property 4).
	if u.Username != "" {
		p.User = u.Username
	}
	if u.Password != "" {
		p.Password = u.Password
	}

	if u.Port != sagaurl.NoPort {
		p.InteractiveArgs += fmt.Sprintf("-p %d ", u.Port)
		p.CopyArgs += fmt.Sprintf("-p %d ", u.Port)
		p.FileTransferArgs += fmt.Sprintf("-P %d ", u.Port)
	}

	if p.User != "" {
		p.HostStr = fmt.Sprintf("%s@%s", p.User, u.HostPort())
		p.ControlPath = fmt.Sprintf("%s/ssh_%%h_%%p.%d.%s.ctrl", settings.ControlDir, os.Getpid(), p.User)
	} else {
		current, err := user.Current()
		if err != nil {
			return NoSuccess("could not resolve current user: %v", err)
		}
		p.User = current.Username
		p.ControlPath = fmt.Sprintf("%s/ssh_%%h_%%p.%d.%s.ctrl", settings.ControlDir, os.Getpid(), p.User)
	}

	p.MasterFlags = fmt.Sprintf("-o ControlMaster=yes -o ControlPath=%s", p.ControlPath)
	p.SlaveFlags = fmt.Sprintf("-o ControlMaster=no -o ControlPath=%s", p.ControlPath)
	p.FSRoot = u.WithPath("/")

	return nil
}
