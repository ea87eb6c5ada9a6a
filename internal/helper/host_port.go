package helper

import "strings"

// validOptionalPort reports whether port is either an empty string
// or matches /^:\d*$/
func validOptionalPort(port string) bool {
	if port == "" {
		return true
	}
	if port[0] != ':' {
		return false
	}
	for _, b := range port[1:] {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}

// SplitHostPort separates host and port. If the port is not valid, it returns
// the entire input as host. Ports must be numeric.
func SplitHostPort(hostPort string) (host, port string) {
	host = hostPort
	colon := strings.LastIndexByte(host, ':')
	if colon != -1 && validOptionalPort(host[colon:]) {
		host, port = host[:colon], host[colon+1:]
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	return
}

// Hostname returns the lower-cased host of a host[:port] string, without
// port or IPv6 brackets.
func Hostname(hostPort string) string {
	host, _ := SplitHostPort(hostPort)
	return strings.ToLower(strings.TrimSuffix(host, "."))
}
