// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

func TestValidateDomain_Accepts(t *testing.T) {
	for _, domain := range []string{
		"science",
		"science/physics",
		"science/physics/quantum-mechanics",
		"tech/golang_1",
		"a/b/c/d/e",
	} {
		assert.NoError(t, substrate.ValidateDomain(domain), "domain %q", domain)
	}
}

func TestValidateDomain_Rejects(t *testing.T) {
	for _, domain := range []string{
		"",
		"../../../etc/passwd",
		"science/../../../etc",
		"science//physics",
		"/science",
		"science/",
		"science\\physics",
		"science/%2e%2e/secret",
		"science/%2E%2E/secret",
		"science/phys%2fics",
		".hidden",
		"science/ physics",
		"-leading",
	} {
		err := substrate.ValidateDomain(domain)
		assert.Error(t, err, "domain %q should be rejected", domain)
		assert.True(t, suberr.HasCode(err, suberr.CodeSubstrateDomainInvalid), "domain %q", domain)
	}
}

func TestTopDomain(t *testing.T) {
	assert.Equal(t, "science", substrate.TopDomain("science/physics/quantum"))
	assert.Equal(t, "science", substrate.TopDomain("science"))
}
