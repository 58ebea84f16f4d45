package server

import (
	"net"
	"net/http"
)

// webhookEgressIPs are the published TradingView alert egress addresses.
var webhookEgressIPs = []string{
	"52.89.214.238",
	"34.212.75.30",
	"54.218.53.128",
	"52.32.178.7",
}

// allowlist admits requests by source IP. Loopback is always admitted so
// local probes and reverse proxies on the same host work.
type allowlist struct {
	allowed map[string]bool
}

func newAllowlist(extra []string) *allowlist {
	allowed := make(map[string]bool, len(webhookEgressIPs)+len(extra))
	for _, ip := range webhookEgressIPs {
		allowed[ip] = true
	}
	for _, ip := range extra {
		allowed[ip] = true
	}

	return &allowlist{allowed: allowed}
}

func (a *allowlist) admits(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}

	if ip.IsLoopback() {
		return true
	}

	return a.allowed[ip.String()]
}

func (a *allowlist) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.admits(r.RemoteAddr) {
			http.Error(w, "forbidden", http.StatusForbidden)

			return
		}

		next.ServeHTTP(w, r)
	})
}
