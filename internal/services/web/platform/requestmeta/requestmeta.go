// Package requestmeta resolves request scheme and origin for cookie and
// same-origin decisions.
package requestmeta

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// SchemePolicy controls whether X-Forwarded-Proto is trusted. It must only
// be enabled behind a proxy that overwrites the header.
type SchemePolicy struct {
	TrustForwardedProto bool
}

// Origin is a normalized scheme/host/port triple.
type Origin struct {
	Scheme string
	Host   string
	Port   string
}

// Valid reports whether every part of the origin is known.
func (o Origin) Valid() bool {
	return o.Scheme != "" && o.Host != "" && o.Port != ""
}

// IsHTTPS reports whether r should be treated as HTTPS under policy.
func IsHTTPS(r *http.Request, policy SchemePolicy) bool {
	return scheme(r, policy) == "https"
}

// RequestOrigin returns the origin the request was addressed to.
func RequestOrigin(r *http.Request, policy SchemePolicy) Origin {
	if r == nil {
		return Origin{}
	}
	origin := Origin{Scheme: scheme(r, policy)}
	origin.Host, origin.Port = splitHost(r.Host)
	if origin.Host == "" && r.URL != nil {
		origin.Host, origin.Port = splitHost(r.URL.Host)
	}
	if origin.Port == "" {
		origin.Port = defaultPort(origin.Scheme)
	}
	return origin
}

// ParseOrigin parses an Origin or Referer header value.
func ParseOrigin(raw string) (Origin, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Origin{}, false
	}
	origin := Origin{
		Scheme: strings.ToLower(parsed.Scheme),
		Host:   strings.ToLower(parsed.Hostname()),
		Port:   parsed.Port(),
	}
	if origin.Port == "" {
		origin.Port = defaultPort(origin.Scheme)
	}
	return origin, origin.Valid()
}

// HasSameOriginProof reports whether the Origin header, or the Referer when
// Origin is absent, matches the request origin.
func HasSameOriginProof(r *http.Request, policy SchemePolicy) bool {
	if r == nil {
		return false
	}
	source := strings.TrimSpace(r.Header.Get("Origin"))
	if source == "" {
		source = strings.TrimSpace(r.Header.Get("Referer"))
	}
	if source == "" {
		return false
	}
	claimed, ok := ParseOrigin(source)
	if !ok {
		return false
	}
	target := RequestOrigin(r, policy)
	return target.Valid() && claimed == target
}

func scheme(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedProto {
		forwarded := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")))
		if forwarded == "http" || forwarded == "https" {
			return forwarded
		}
	}
	if r.URL != nil {
		if s := strings.ToLower(r.URL.Scheme); s == "http" || s == "https" {
			return s
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func splitHost(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return strings.ToLower(strings.Trim(raw, "[]")), ""
	}
	return strings.ToLower(host), port
}

func defaultPort(scheme string) string {
	switch scheme {
	case "https":
		return "443"
	case "http":
		return "80"
	default:
		return ""
	}
}
