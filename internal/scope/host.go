package scope

import "strings"

// hostParts splits a hostname into (subdomain, registrable-name, tld).
// This is a pragmatic label-count split, not a public-suffix-list lookup:
// the last label is the TLD, the one before it the registrable name, and
// everything preceding that the subdomain. It is adequate for the
// single-registrable-domain scoping this crawler targets; multi-part
// public suffixes (co.uk, github.io) are a known limitation, not silently
// mishandled — see DESIGN.md.
func hostParts(host string) (subdomain, name, tld string) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	labels := strings.Split(host, ".")

	switch len(labels) {
	case 0:
		return "", "", ""
	case 1:
		return "", labels[0], ""
	case 2:
		return "", labels[0], labels[1]
	default:
		n := len(labels)
		return strings.Join(labels[:n-2], "."), labels[n-2], labels[n-1]
	}
}
