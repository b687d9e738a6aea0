// Package tenant resolves the organisation a request is addressed to and attaches it to
// the request context.
package tenant

import (
	"net/http"
	"net/url"
	"strings"
)

// Reserved slugs.
const (
	// SlugApp addresses the platform itself; requests carry no tenant.
	SlugApp = "app"
	// SlugPortal addresses the operator portal, reserved for platform admins.
	SlugPortal = "portal"
)

// OverrideHeader lets a client on a shared host name its organisation explicitly.
const OverrideHeader = "X-Organisation-Subdomain"

// Resolver extracts tenant slugs from hosts under ParentDomain. It performs no I/O.
type Resolver struct {
	ParentDomain string
}

// NewResolver returns a resolver for parentDomain, e.g. "ledenhub.nl".
func NewResolver(parentDomain string) *Resolver {
	return &Resolver{ParentDomain: normaliseHost(parentDomain)}
}

// ResolveRequest resolves the slug from the request's Host, override header and Referer.
func (r *Resolver) ResolveRequest(req *http.Request) (string, bool) {
	return r.Resolve(req.Host, req.Header.Get(OverrideHeader), req.Header.Get("Referer"))
}

// Resolve returns the slug of the first candidate under the parent domain, trying host,
// then override, then the referer URL's host. Malformed or foreign candidates are skipped.
func (r *Resolver) Resolve(host, override, referer string) (string, bool) {
	if slug, ok := r.slugFromHost(host); ok {
		return slug, true
	}
	if slug, ok := r.slugFromHost(override); ok {
		return slug, true
	}
	return r.slugFromHost(refererHost(referer))
}

// slugFromHost returns the label immediately preceding the parent domain.
func (r *Resolver) slugFromHost(host string) (string, bool) {
	parent := normaliseHost(r.ParentDomain)
	if parent == "" {
		return "", false
	}

	host = normaliseHost(host)

	// label aligned: "evilexample.test" is not under "example.test"
	prefix, ok := strings.CutSuffix(host, "."+parent)
	if !ok || prefix == "" {
		return "", false
	}

	if i := strings.LastIndexByte(prefix, '.'); i >= 0 {
		prefix = prefix[i+1:]
	}

	slug := strings.TrimSpace(prefix)
	if slug == "" {
		return "", false
	}
	return slug, true
}

func refererHost(referer string) string {
	referer = strings.TrimSpace(referer)
	if referer == "" {
		return ""
	}

	u, err := url.Parse(referer)
	if err != nil {
		return ""
	}
	return u.Host
}

// normaliseHost lowercases host and strips surrounding space, any port and trailing dots.
// Bracketed IPv6 literals never carry a slug and normalise to the empty string.
func normaliseHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if strings.HasPrefix(host, "[") {
		return ""
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.TrimSuffix(strings.TrimSpace(host), ".")
}
