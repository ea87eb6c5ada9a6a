package helper

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/match"
)

// DefaultAllowHosts limits TLS interception to the dating API's domain;
// everything else is tunnelled untouched.
var DefaultAllowHosts = []string{"*.gotinder.com"}

// NormalizePatterns lower-cases patterns and drops blanks and duplicates.
func NormalizePatterns(patterns []string) []string {
	out := lo.Map(patterns, func(p string, _ int) string {
		return strings.ToLower(strings.TrimSpace(p))
	})
	out = lo.Filter(out, func(p string, _ int) bool {
		return p != ""
	})
	return lo.Uniq(out)
}

// MatchHost reports whether hostPort matches any of the wildcard patterns.
// A pattern without a port matches every port of the host.
func MatchHost(hostPort string, patterns []string) bool {
	host := Hostname(hostPort)
	_, port := SplitHostPort(hostPort)
	return lo.ContainsBy(patterns, func(p string) bool {
		if match.Match(host, p) {
			return true
		}
		return port != "" && match.Match(host+":"+port, p)
	})
}

// ShouldIntercept builds the rule deciding which CONNECT targets get their
// TLS terminated by the proxy. A non-empty allow list wins over ignore.
func ShouldIntercept(allow, ignore []string) func(req *http.Request) bool {
	allow = NormalizePatterns(allow)
	ignore = NormalizePatterns(ignore)
	return func(req *http.Request) bool {
		if len(allow) > 0 {
			return MatchHost(req.Host, allow)
		}
		if len(ignore) > 0 {
			return !MatchHost(req.Host, ignore)
		}
		return true
	}
}
