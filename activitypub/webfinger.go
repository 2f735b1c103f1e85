package activitypub

import (
	"net/url"
	"strings"

	"github.com/deemkeen/linkodon/domain"
)

// Resource identifies one user by name and hosting domain, the way handles
// are written for discovery: name@domain. The domain keeps its port when the
// instance runs on a non-standard one.
type Resource struct {
	Name   string
	Domain string
}

func (r Resource) String() string {
	return r.Name + "@" + r.Domain
}

// Acct renders the resource as a webfinger acct: URI.
func (r Resource) Acct() string {
	return "acct:" + r.String()
}

// ParseHandle reads a user-entered handle. A bare name refers to a local
// user on this instance; name@domain splits verbatim into name and domain,
// undergoing no normalization. Whether the name denotes a real account is a
// lookup question, not a syntax one, so no character restrictions apply
// here; local account creation enforces its own.
func ParseHandle(handle string, localDomain *url.URL) (Resource, error) {
	handle = strings.TrimPrefix(handle, "@")
	if handle == "" {
		return Resource{}, &domain.ValidationError{Field: "handle", Reason: "empty"}
	}

	name, hostPart, found := strings.Cut(handle, "@")
	if name == "" {
		return Resource{}, &domain.ValidationError{Field: "handle", Reason: "empty name"}
	}
	if found {
		if hostPart == "" {
			return Resource{}, &domain.ValidationError{Field: "handle", Reason: "empty domain"}
		}
		return Resource{Name: name, Domain: hostPart}, nil
	}

	return FromNameAndURL(name, localDomain), nil
}

// FromNameAndURL builds the resource for a user hosted at the given base
// URL.
func FromNameAndURL(name string, u *url.URL) Resource {
	return Resource{Name: name, Domain: u.Host}
}

// ParseAcctResource reads the resource query parameter of a webfinger
// request, with or without the acct: scheme.
func ParseAcctResource(resource string, localDomain *url.URL) (Resource, error) {
	resource = strings.TrimPrefix(resource, "acct:")
	return ParseHandle(resource, localDomain)
}
