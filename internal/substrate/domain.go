// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate

import (
	"regexp"
	"strings"

	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

var domainSegment = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateDomain rejects any domain path that could escape the store
// root once used in file path construction. This is a security boundary
// and runs before any path is built from the domain.
func ValidateDomain(domain string) error {
	lower := strings.ToLower(domain)

	if strings.Contains(domain, "..") ||
		strings.Contains(domain, "//") ||
		strings.HasPrefix(domain, "/") ||
		strings.Contains(lower, "%2f") || // URL-encoded /
		strings.Contains(lower, "%2e%2e") || // URL-encoded ..
		strings.Contains(domain, `\`) {
		return suberr.New(suberr.CodeSubstrateDomainInvalid,
			"invalid domain: path traversal detected",
			suberr.FieldDomain(domain),
		)
	}

	for _, segment := range strings.Split(domain, "/") {
		if !domainSegment.MatchString(segment) {
			return suberr.New(suberr.CodeSubstrateDomainInvalid,
				"invalid domain: segment must start with an alphanumeric and contain only alphanumerics, underscores, or hyphens",
				suberr.FieldDomain(domain),
				suberr.Field("segment", segment),
			)
		}
	}

	return nil
}

// TopDomain returns the first path segment of a domain.
func TopDomain(domain string) string {
	if idx := strings.Index(domain, "/"); idx >= 0 {
		return domain[:idx]
	}
	return domain
}
