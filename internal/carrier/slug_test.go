package carrier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentify_KnownCarriers(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Slug
	}{
		{"plain domain", "https://abacus.net/login", Abacus},
		{"with subdomain", "https://portal.abacus.net/login", Abacus},
		{"deep subdomains", "https://agents.secure.portal.assurity.com/auth", Assurity},
		{"mixed case host", "https://Portal.AMERITAS.com/login", Ameritas},
		{"port and query", "https://broker.principal.com:8443/login?next=%2Fstatements", Principal},
		{"no path", "https://transamerica.com", Transamerica},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identify(tt.url))
		})
	}
}

func TestIdentify_SubdomainDoesNotChangeSlug(t *testing.T) {
	urls := []string{
		"https://guardianlife.com/login",
		"https://www.guardianlife.com/login",
		"https://producer.portal.guardianlife.com/some/deep/path",
	}
	for _, u := range urls {
		assert.Equal(t, GuardianLife, Identify(u), "url: %s", u)
	}
}

func TestIdentify_Unknown(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty string", ""},
		{"not a url", "not a url at all"},
		{"no host", "/relative/path"},
		{"malformed", "http://%zz"},
		{"unregistered domain", "https://portal.unheardof.com/login"},
		{"single label host", "https://localhost/login"},
		{"tld only", "https://com/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Unknown, Identify(tt.url))
		})
	}
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown(Abacus))
	assert.True(t, IsKnown(Sentinel))
	assert.False(t, IsKnown(Unknown))
	assert.False(t, IsKnown(Slug("com_nobody")))
}
