// Package carrier maps carrier portal URLs to canonical carrier identifiers.
package carrier

import (
	"net/url"
	"strings"
)

// Slug is the canonical identifier for a carrier, derived from the last two
// labels of its portal hostname in reverse order ("{tld}_{domain}"). The
// reversed order is a deliberate normalization key.
type Slug string

// Unknown is returned for malformed URLs and for domains that are not in the
// known-carrier set. The dispatcher must never run a workflow for it.
const Unknown Slug = "unknown"

// Known carriers. Adding a carrier means adding its slug here and registering
// a workflow for it in internal/workflow/carriers.
const (
	Abacus        Slug = "net_abacus"
	Assurity      Slug = "com_assurity"
	Ameritas      Slug = "com_ameritas"
	Transamerica  Slug = "com_transamerica"
	MutualOfOmaha Slug = "com_mutualofomaha"
	GuardianLife  Slug = "com_guardianlife"
	Principal     Slug = "com_principal"
	Foresters     Slug = "com_foresters"
	Protective    Slug = "com_protective"
	Sagicor       Slug = "com_sagicor"
	MutualTrust   Slug = "com_mutualtrust"
	Sentinel      Slug = "com_sentinel"
)

var known = map[Slug]bool{
	Abacus:        true,
	Assurity:      true,
	Ameritas:      true,
	Transamerica:  true,
	MutualOfOmaha: true,
	GuardianLife:  true,
	Principal:     true,
	Foresters:     true,
	Protective:    true,
	Sagicor:       true,
	MutualTrust:   true,
	Sentinel:      true,
}

// Identify derives the carrier slug from a portal login URL.
// Only the last two hostname labels matter, so subdomains and paths do not
// affect the result. A well-formed URL whose domain is not a known carrier
// still yields Unknown.
func Identify(loginURL string) Slug {
	parsed, err := url.Parse(loginURL)
	if err != nil {
		return Unknown
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return Unknown
	}

	labels := strings.Split(host, ".")

	var slug Slug
	if len(labels) < 2 {
		slug = Slug(strings.ReplaceAll(host, ".", "_"))
	} else {
		domain := labels[len(labels)-2]
		tld := labels[len(labels)-1]
		slug = Slug(tld + "_" + domain)
	}

	if !known[slug] {
		return Unknown
	}
	return slug
}

// IsKnown reports whether s is a registered carrier slug.
func IsKnown(s Slug) bool {
	return known[s]
}
