// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "regexp"

// emailRegex accepts local-part@domain.tld where the local part and domain
// allow word characters, dots and hyphens.
var emailRegex = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// IsValidEmail reports whether candidate is structurally an email address.
// No DNS or mailbox verification is performed.
func IsValidEmail(candidate string) bool {
	return emailRegex.MatchString(candidate)
}
