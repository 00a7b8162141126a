package checkout

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
)

// ErrUntrustedOrigin means a caller-supplied return_origin failed the
// allow-list check. Handlers surface it as 4xx and log it as a
// potential abuse signal: an attacker-controlled origin would let the
// payer be redirected to a spoofed success page.
var ErrUntrustedOrigin = errors.New("return origin is not in the allow-list")

// validateReturnOrigin checks a caller-supplied front-end origin
// against the configured allow-list. Outside dev the scheme must be
// https. Allow-list entries match the host exactly, or any subdomain
// when prefixed with "*.".
func validateReturnOrigin(origin string, allowed []string, env config.Env) (string, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: unparseable origin %q", ErrUntrustedOrigin, origin)
	}

	switch u.Scheme {
	case "https":
	case "http":
		if env != config.EnvDev {
			return "", fmt.Errorf("%w: http origin not allowed outside dev", ErrUntrustedOrigin)
		}
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrUntrustedOrigin, u.Scheme)
	}

	host := u.Hostname()
	for _, entry := range allowed {
		if hostMatches(host, entry) {
			// Rebuild from parsed parts; never echo the raw input.
			base := u.Scheme + "://" + u.Host
			return base, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUntrustedOrigin, host)
}

func hostMatches(host, entry string) bool {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return false
	}
	// Entries may be written as full URLs; reduce to the host part.
	if strings.Contains(entry, "://") {
		if u, err := url.Parse(entry); err == nil && u.Hostname() != "" {
			entry = u.Hostname()
		}
	}
	// Hostnames compare case-insensitively, for wildcards too.
	host = strings.ToLower(host)
	entry = strings.ToLower(entry)
	if rest, ok := strings.CutPrefix(entry, "*."); ok {
		return strings.HasSuffix(host, "."+rest)
	}
	return host == entry
}
