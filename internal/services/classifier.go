package services

import (
	"errors"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/Wikid82/blackfeed/backend/internal/models"
)

// Classification rejection reasons. Callers surface these to operators, so
// every invalid input maps to one of them rather than a raw parse error.
var (
	ErrEmptyValue            = errors.New("value is empty")
	ErrValueTooLong          = errors.New("value exceeds maximum length")
	ErrReservedIP            = errors.New("ip address is in a reserved or private range")
	ErrURLScheme             = errors.New("url must use http or https")
	ErrPrivateURLHost        = errors.New("url host is localhost or a private range")
	ErrUnsupportedHashLength = errors.New("unsupported hash length")
	ErrReservedTLD           = errors.New("domain uses a reserved or local tld")
	ErrUnrecognizedValue     = errors.New("value is not an ip, url, hash or domain")
)

// Classification is the result of a successful classify call.
type Classification struct {
	Kind models.IndicatorKind
	// HashAlgorithm is set only when Kind is hash.
	HashAlgorithm string
}

const maxValueLength = 2048

// hashAlgorithms maps hex digest length to the algorithm it denotes.
var hashAlgorithms = map[int]string{
	32:  "md5",
	40:  "sha1",
	56:  "sha224",
	64:  "sha256",
	96:  "sha384",
	128: "sha512",
}

var (
	hexPattern    = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	domainPattern = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)
)

// reservedTLDs are never routable indicator targets (RFC 2606, RFC 6762,
// plus the common internal-infrastructure suffixes).
var reservedTLDs = []string{".local", ".internal", ".test", ".example", ".invalid"}

// reservedIPv4Blocks covers private, loopback, link-local, documentation,
// benchmark, multicast and future-use space. Addresses in here are noise
// when they show up in a public threat feed.
var reservedIPv4Blocks = mustParseCIDRs(
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.0.2.0/24",
	"192.168.0.0/16",
	"198.18.0.0/15",
	"198.51.100.0/24",
	"203.0.113.0/24",
	"224.0.0.0/4",
	"240.0.0.0/4",
	"255.255.255.255/32",
)

func mustParseCIDRs(blocks ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, b := range blocks {
		_, ipnet, err := net.ParseCIDR(b)
		if err != nil {
			panic(err)
		}
		nets = append(nets, ipnet)
	}
	return nets
}

// Classify determines the indicator kind of a raw value. The test order is
// significant: a URL's host can look like a bare domain, and a hex digest
// could otherwise be read as a hostname, so ip and url and hash are tried
// before domain.
func Classify(raw string) (Classification, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Classification{}, ErrEmptyValue
	}
	if len(v) > maxValueLength {
		return Classification{}, ErrValueTooLong
	}

	if ip := parseIPv4(v); ip != nil {
		if isReservedIPv4(ip) {
			return Classification{}, ErrReservedIP
		}
		return Classification{Kind: models.KindIP}, nil
	}

	if looksLikeURL(v) {
		if err := checkURL(v); err != nil {
			return Classification{}, err
		}
		return Classification{Kind: models.KindURL}, nil
	}

	if hexPattern.MatchString(v) && len(v) >= 16 {
		algo, ok := hashAlgorithms[len(v)]
		if !ok {
			return Classification{}, ErrUnsupportedHashLength
		}
		return Classification{Kind: models.KindHash, HashAlgorithm: algo}, nil
	}

	if domainPattern.MatchString(v) {
		if isReservedDomain(v) {
			return Classification{}, ErrReservedTLD
		}
		return Classification{Kind: models.KindDomain}, nil
	}
	if strings.EqualFold(v, "localhost") {
		return Classification{}, ErrReservedTLD
	}

	return Classification{}, ErrUnrecognizedValue
}

// ClassifyWhitelistValue is the looser variant used for allow-list entries.
// Internal assets are legitimate whitelist subjects, so reserved and private
// IP ranges are accepted and the value may be a CIDR block. URL scheme and
// reserved-TLD checks still apply.
func ClassifyWhitelistValue(raw string) (Classification, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Classification{}, ErrEmptyValue
	}
	if len(v) > maxValueLength {
		return Classification{}, ErrValueTooLong
	}

	if _, _, err := net.ParseCIDR(v); err == nil {
		return Classification{Kind: models.KindIP}, nil
	}
	if parseIPv4(v) != nil {
		return Classification{Kind: models.KindIP}, nil
	}

	if looksLikeURL(v) {
		if err := checkURL(v); err != nil {
			return Classification{}, err
		}
		return Classification{Kind: models.KindURL}, nil
	}

	if hexPattern.MatchString(v) && len(v) >= 16 {
		algo, ok := hashAlgorithms[len(v)]
		if !ok {
			return Classification{}, ErrUnsupportedHashLength
		}
		return Classification{Kind: models.KindHash, HashAlgorithm: algo}, nil
	}

	if domainPattern.MatchString(v) {
		if isReservedDomain(v) {
			return Classification{}, ErrReservedTLD
		}
		return Classification{Kind: models.KindDomain}, nil
	}
	if strings.EqualFold(v, "localhost") {
		return Classification{}, ErrReservedTLD
	}

	return Classification{}, ErrUnrecognizedValue
}

func parseIPv4(v string) net.IP {
	ip := net.ParseIP(v)
	if ip == nil {
		return nil
	}
	return ip.To4()
}

func isReservedIPv4(ip net.IP) bool {
	for _, block := range reservedIPv4Blocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

func looksLikeURL(v string) bool {
	lower := strings.ToLower(v)
	return strings.Contains(lower, "://") ||
		strings.HasPrefix(lower, "http:") || strings.HasPrefix(lower, "https:")
}

func checkURL(v string) error {
	u, err := url.Parse(v)
	if err != nil {
		return ErrUnrecognizedValue
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrURLScheme
	}
	host := u.Hostname()
	if host == "" {
		return ErrUnrecognizedValue
	}
	if strings.EqualFold(host, "localhost") {
		return ErrPrivateURLHost
	}
	if ip := parseIPv4(host); ip != nil && isReservedIPv4(ip) {
		return ErrPrivateURLHost
	}
	return nil
}

func isReservedDomain(v string) bool {
	lower := strings.ToLower(v)
	for _, tld := range reservedTLDs {
		if strings.HasSuffix(lower, tld) {
			return true
		}
	}
	return false
}
