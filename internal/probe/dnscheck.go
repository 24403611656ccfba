package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

const (
	ClassNXDomain    = "NXDOMAIN"
	ClassNoARecord   = "NO_A_RECORD"
	ClassResolves    = "RESOLVES"
	ClassServfail    = "SERVFAIL_or_TIMEOUT"
	ClassInvalidName = "INVALID_NAME"
)

// DNSStatus is the resolver's view of a host after a failed fetch.
type DNSStatus struct {
	Domain        string
	HasAOrAAAA    bool
	HasNS         bool
	Class         string
	ResolverError string
}

var dnsTimeout = 3 * time.Second

type resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// lookup is the OS resolver; tests swap it.
var lookup resolver = &net.Resolver{}

// CheckDNS classifies domain with an A/AAAA lookup, falling back to an NS
// lookup to tell a missing record from a missing zone. It ignores parent's
// cancellation but keeps its values.
func CheckDNS(parent context.Context, domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = ClassInvalidName
		return s
	}
	if ip := net.ParseIP(s.Domain); ip != nil {
		s.HasAOrAAAA = true
		s.Class = ClassResolves
		return s
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), dnsTimeout)
	defer cancel()
	r := lookup

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.HasAOrAAAA = true
		s.Class = ClassResolves
	} else if err != nil {
		var de *net.DNSError
		s.ResolverError = err.Error()
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = ClassNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = ClassServfail
			}
		}
	}

	if !s.HasAOrAAAA {
		if ns, err := r.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
			s.HasNS = true
			if s.Class == ClassNXDomain {
				s.Class = ClassNoARecord
			}
		}
	}

	if s.Class == "" {
		if s.HasAOrAAAA {
			s.Class = ClassResolves
		} else if s.HasNS {
			s.Class = ClassNoARecord
		} else if s.ResolverError != "" {
			s.Class = ClassServfail
		} else {
			s.Class = ClassNXDomain
		}
	}
	return s
}
