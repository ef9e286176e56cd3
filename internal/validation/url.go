package validation

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"unicode"
)

const DefaultMaxLength = 2048

var (
	ErrEmptyURL          = errors.New("URL cannot be empty")
	ErrURLTooLong        = errors.New("URL too long")
	ErrInvalidCharacters = errors.New("URL contains invalid characters")
	ErrUnsupportedScheme = errors.New("URL must use http or https protocol")
	ErrMissingHost       = errors.New("URL must have a valid hostname")
	ErrPrivateHost       = errors.New("local and private addresses are not permitted")
)

// FeedURLValidator checks URLs before they are fetched or handed to an
// external program.
type FeedURLValidator struct {
	// AllowPrivateHosts permits localhost, loopback, link-local and
	// private-range addresses.
	AllowPrivateHosts bool
	MaxLength         int
}

// NewFeedURLValidator blocks local and private hosts.
func NewFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{MaxLength: DefaultMaxLength}
}

// NewPermissiveFeedURLValidator allows local development feeds.
func NewPermissiveFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{AllowPrivateHosts: true, MaxLength: DefaultMaxLength}
}

// ValidateAndNormalize validates a configured feed URL. A missing scheme
// defaults to https.
func (v *FeedURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyURL
	}
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := v.parse(input)
	if err != nil {
		return "", err
	}
	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}
	return u.String(), nil
}

// ValidateLink checks an article link before it is passed to a browser,
// a terminal viewer or the clipboard. Links must already be absolute.
// Private hosts are not rejected: the feed chose to link there.
func (v *FeedURLValidator) ValidateLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", ErrEmptyURL
	}
	u, err := v.parse(link)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (v *FeedURLValidator) parse(input string) (*url.URL, error) {
	limit := v.MaxLength
	if limit <= 0 {
		limit = DefaultMaxLength
	}
	if len(input) > limit {
		return nil, fmt.Errorf("%w (max %d characters)", ErrURLTooLong, limit)
	}
	if strings.ContainsAny(input, "<>\"'`") || strings.IndexFunc(input, isUnsafeRune) >= 0 {
		return nil, ErrInvalidCharacters
	}

	u, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrUnsupportedScheme
	}
	if u.Hostname() == "" {
		return nil, ErrMissingHost
	}
	return u, nil
}

func isUnsafeRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}

func (v *FeedURLValidator) checkHost(host string) error {
	if v.AllowPrivateHosts {
		return nil
	}
	if IsPrivateHost(host) {
		return fmt.Errorf("%w: %s", ErrPrivateHost, host)
	}
	return nil
}

// IsPrivateHost reports whether host names this machine or a non-routable
// network. Host names other than localhost are not resolved.
func IsPrivateHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsUnspecified()
}
