package security

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/leslieo2/tioga-health/internal/constants"
)

// TrustedProxies is the set of peers allowed to report the client address
// through X-Forwarded-For or X-Real-IP. The zero value trusts nobody.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies accepts bare addresses and CIDR ranges. Entries that
// parse as neither are skipped; config validation rejects them earlier.
func ParseTrustedProxies(entries []string) TrustedProxies {
	var out TrustedProxies
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return out
}

func (t TrustedProxies) trusts(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range t {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the originating client address. Forwarding headers are
// read only when the direct peer is a trusted proxy; X-Forwarded-For is
// walked from the right and the first untrusted hop wins.
func (t TrustedProxies) ClientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !t.trusts(peer) {
		return peer
	}

	if xff := r.Header.Get(constants.HeaderXForwardedFor); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !t.trusts(hop) || i == 0 {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get(constants.HeaderXRealIP)); xri != "" {
		return xri
	}
	return peer
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
