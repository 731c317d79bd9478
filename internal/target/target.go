// Package target validates raw lookup inputs and converts them into the
// canonical strings used as cache keys and as the NetGeo query target.
package target

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tbckr/netgeo/internal/apperr"
)

// Kind identifies what a canonical target refers to.
type Kind int

const (
	// KindASN is an autonomous-system number, with or without an "AS" prefix.
	KindASN Kind = iota + 1
	// KindIPv4 is a dotted-quad IPv4 address.
	KindIPv4
	// KindDomain is a host or domain name.
	KindDomain
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindASN:
		return "asn"
	case KindIPv4:
		return "ipv4"
	case KindDomain:
		return "domain"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Target is a classified lookup input.
type Target struct {
	Raw       string
	Canonical string
	Kind      Kind
}

var (
	asnRegexp    = regexp.MustCompile(`^(?:AS|as)?\s?(\d+)$`)
	ipv4Regexp   = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)
	domainRegexp = regexp.MustCompile(`^(?:[\w-]+\.)*[\w-]+\.([A-Za-z]{2,})$`)
)

// genericTLDs are the only accepted TLD stems longer than two letters.
// Matching is a case-insensitive prefix test.
var genericTLDs = []string{"com", "net", "org", "edu", "gov", "mil", "int"}

// maxASN is the exclusive upper bound for 16-bit AS numbers.
const maxASN = 65536

// Classify trims raw and classifies it as an AS number, an IPv4 address or a
// domain name. Rules are tried in that order and the first matching shape
// decides: an input shaped like an AS number that is out of range is rejected
// rather than retried as a domain.
//
// The returned error wraps apperr.ErrInvalidInput.
func Classify(raw string) (Target, error) {
	s := strings.TrimSpace(raw)
	t := Target{Raw: raw}

	if m := asnRegexp.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n >= maxASN {
			return t, fmt.Errorf("%w: AS number must be between 1 and %d: %q", apperr.ErrInvalidInput, maxASN-1, s)
		}
		t.Canonical, t.Kind = m[0], KindASN
		return t, nil
	}

	if m := ipv4Regexp.FindStringSubmatch(s); m != nil {
		for _, group := range m[1:] {
			n, _ := strconv.Atoi(group) // at most three digits, always parses
			if n > 255 {
				return t, fmt.Errorf("%w: each IPv4 octet must be between 0 and 255: %q", apperr.ErrInvalidInput, s)
			}
		}
		t.Canonical, t.Kind = s, KindIPv4
		return t, nil
	}

	if m := domainRegexp.FindStringSubmatch(s); m != nil {
		if !acceptTLD(m[1]) {
			return t, fmt.Errorf("%w: 3-letter TLDs must be one of %s: %q",
				apperr.ErrInvalidInput, strings.Join(genericTLDs, ","), s)
		}
		t.Canonical, t.Kind = s, KindDomain
		return t, nil
	}

	return t, fmt.Errorf("%w: must be an AS number, IPv4 address or domain name: %q", apperr.ErrInvalidInput, s)
}

// acceptTLD accepts every two-letter TLD and any longer TLD starting with one
// of the generic stems.
func acceptTLD(tld string) bool {
	if len(tld) == 2 {
		return true
	}
	lower := strings.ToLower(tld)
	for _, stem := range genericTLDs {
		if strings.HasPrefix(lower, stem) {
			return true
		}
	}
	return false
}
