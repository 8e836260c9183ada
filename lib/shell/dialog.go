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
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/saga-project/ptyshell/lib/ptyutils"
)

// promptPatterns is the fixed-priority sequence the dialog engine
// matches against (spec.md §4.4). Index order is significant: a match of
// pattern 0 takes precedence over a simultaneous match of pattern 3.
var promptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[Pp]assword:\s*$`),                  // 0: password prompt
	regexp.MustCompile(`Enter passphrase for key '.*':\s*$`),    // 1: passphrase prompt
	regexp.MustCompile(`want to continue connecting`),           // 2: host-key confirmation
	regexp.MustCompile(`(?m)^.*[$#%>]\s*$`),                     // 3: shell greeting prompt
}

// runDialog drives proc through authentication and greeting until a
// stable shell prompt is reached, or returns an AuthenticationFailed
// error. Every error it raises has already passed through the error
// translator (spec.md §4.4 final sentence).
func runDialog(ctx context.Context, proc *ptyutils.Process, password string, certPasswords map[string]string, timeout time.Duration, logger log.FieldLogger) error {
	for {
		idx, match, err := proc.Find(ctx, promptPatterns, timeout)
		if err != nil {
			return translate(err)
		}

		switch idx {
		case -1:
			// No match within this attempt's timeout; the spec places
			// no cap on retries, so keep waiting for arbitrary output
			// preceding a prompt.
			continue

		case 0: // password
			if logger != nil {
				logger.Debug("got password prompt")
			}
			if password == "" {
				return translate(AuthenticationFailed("prompted for unknown password (%s)", match))
			}
			if err := proc.Write([]byte(password + "\n")); err != nil {
				return translate(err)
			}

		case 1: // passphrase
			if logger != nil {
				logger.Debugf("got passphrase prompt: %s", match)
			}
			cert, ok := extractCertName(match)
			if !ok {
				return translate(AuthenticationFailed("could not extract cert name (%s)", match))
			}
			pass, ok := certPasswords[cert]
			if !ok {
				return translate(AuthenticationFailed("prompted for unknown certificate password (%s)", cert))
			}
			if err := proc.Write([]byte(pass + "\n")); err != nil {
				return translate(err)
			}

		case 2: // host-key confirmation
			if logger != nil {
				logger.Debug("got hostkey prompt")
			}
			if err := proc.Write([]byte("yes\n")); err != nil {
				return translate(err)
			}

		case 3: // shell prompt reached
			if logger != nil {
				logger.Debug("got initial shell prompt")
			}
			return nil
		}
	}
}

// extractCertName pulls the certificate path from between the first two
// single quotes of a passphrase-prompt match, e.g.
// "Enter passphrase for key '/home/alice/.ssh/id_rsa': ".
func extractCertName(match string) (string, bool) {
	start := strings.IndexByte(match, '\'')
	if start == -1 {
		return "", false
	}
	end := strings.IndexByte(match[start+1:], '\'')
	if end == -1 {
		return "", false
	}
	return match[start+1 : start+1+end], true
}
