package activitypub

import (
	"fmt"
	"net/url"

	"github.com/deemkeen/linkodon/domain"
)

// VerifyDomainsMatch fails unless the host of claimedId equals the host of
// expectedOrigin. This keeps an object from claiming an identity hosted
// elsewhere than where it was actually served from.
func VerifyDomainsMatch(claimedId, expectedOrigin string) error {
	claimed, err := url.Parse(claimedId)
	if err != nil {
		return &domain.VerificationError{Reason: fmt.Sprintf("unparseable id %q", claimedId)}
	}
	expected, err := url.Parse(expectedOrigin)
	if err != nil {
		return &domain.VerificationError{Reason: fmt.Sprintf("unparseable origin %q", expectedOrigin)}
	}
	if claimed.Host == "" || claimed.Host != expected.Host {
		return &domain.VerificationError{Reason: fmt.Sprintf("domain of %q does not match %q", claimedId, expectedOrigin)}
	}
	return nil
}

// VerifyIsRemoteObject fails if claimedId is hosted on this instance. This
// keeps a remote party from impersonating a local identity.
func VerifyIsRemoteObject(claimedId string, localDomain string) error {
	claimed, err := url.Parse(claimedId)
	if err != nil {
		return &domain.VerificationError{Reason: fmt.Sprintf("unparseable id %q", claimedId)}
	}
	if claimed.Host == localDomain {
		return &domain.VerificationError{Reason: fmt.Sprintf("%q claims to be a local object", claimedId)}
	}
	return nil
}

// VerifyURLsMatch fails unless a and b are the same URL. Used to check that
// an activity's self-referential fields agree.
func VerifyURLsMatch(a, b string) error {
	if a != b {
		return &domain.VerificationError{Reason: fmt.Sprintf("url %q does not match %q", a, b)}
	}
	return nil
}
