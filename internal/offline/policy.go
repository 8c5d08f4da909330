package offline

import (
	"net/http"
	"net/url"
	"strings"
)

// Policy is the caching strategy applied to one outgoing request.
type Policy int

const (
	// PassThrough goes to the network and never touches the cache.
	PassThrough Policy = iota
	// StaleWhileRevalidate answers from cache when possible and refreshes in the background.
	StaleWhileRevalidate
	// NetworkFirst tries the network and falls back to the cache on failure.
	NetworkFirst
)

func (p Policy) String() string {
	switch p {
	case PassThrough:
		return "pass-through"
	case StaleWhileRevalidate:
		return "stale-while-revalidate"
	case NetworkFirst:
		return "network-first"
	}
	return "unknown"
}

// Rules decides which Policy a request gets.
type Rules struct {
	// DatabaseURL is the backing data service. Its responses are never cached.
	DatabaseURL string
	// CDNHosts are third-party static asset hosts.
	CDNHosts []string
}

// Classify picks the policy for req. Rules are checked in fixed order:
// database host, CDN allow-list, then everything else.
func (r Rules) Classify(req *http.Request) Policy {
	return r.ClassifyURL(req.URL)
}

// ClassifyURL is Classify for a bare URL.
func (r Rules) ClassifyURL(u *url.URL) Policy {
	host := strings.ToLower(u.Hostname())
	if r.isDatabase(u, host) {
		return PassThrough
	}
	for _, cdn := range r.CDNHosts {
		cdn = strings.ToLower(strings.TrimSpace(cdn))
		if cdn == "" {
			continue
		}
		if host == cdn || strings.HasSuffix(host, "."+cdn) {
			return StaleWhileRevalidate
		}
	}
	return NetworkFirst
}

func (r Rules) isDatabase(u *url.URL, host string) bool {
	if r.DatabaseURL == "" {
		return false
	}
	db, err := url.Parse(r.DatabaseURL)
	if err != nil || db.Host == "" {
		return strings.HasPrefix(u.String(), r.DatabaseURL)
	}
	return host == strings.ToLower(db.Hostname()) && portOf(u) == portOf(db)
}

func portOf(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch u.Scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}
