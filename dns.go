package waktunya

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"
)

// DNSClassification labels the resolvers the session's lookups appear to
// travel through, plus a best-effort leak flag. Advisory only.
type DNSClassification struct {
	Providers []string `json:"providers"`
	Leak      bool     `json:"leak"`
}

// DNSClassifier infers resolver providers for the session. Failures
// yield an empty classification, never an error that blocks a refresh.
type DNSClassifier interface {
	Classify(ctx context.Context, isp string) DNSClassification
}

const dnsProbeTimeout = 5 * time.Second

// whoami.akamai.net resolves to the address of the resolver that asked,
// which makes it usable as a resolver-identity probe.
const defaultProbeHost = "whoami.akamai.net"

var wellKnownResolvers = map[string]string{
	"8.8.8.8":         "Google Public DNS",
	"8.8.4.4":         "Google Public DNS",
	"1.1.1.1":         "Cloudflare",
	"1.0.0.1":         "Cloudflare",
	"9.9.9.9":         "Quad9",
	"149.112.112.112": "Quad9",
	"208.67.222.222":  "OpenDNS",
	"208.67.220.220":  "OpenDNS",
}

type hostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// ResolverClassifier combines a resolver-identity probe with reverse
// lookups of the answering addresses.
type ResolverClassifier struct {
	resolver  hostResolver
	probeHost string
}

func NewResolverClassifier(resolver hostResolver) *ResolverClassifier {
	return &ResolverClassifier{
		resolver:  resolver,
		probeHost: defaultProbeHost,
	}
}

func (c *ResolverClassifier) Classify(ctx context.Context, isp string) DNSClassification {
	ctx, cancel := context.WithTimeout(ctx, dnsProbeTimeout)
	defer cancel()

	addrs, err := c.resolver.LookupHost(ctx, c.probeHost)
	if err != nil {
		log.Println("DNS probe failed:", err)
		return DNSClassification{Providers: []string{}}
	}

	seen := map[string]bool{}
	for _, addr := range addrs {
		seen[c.labelFor(ctx, addr, isp)] = true
	}

	providers := make([]string, 0, len(seen))
	for label := range seen {
		providers = append(providers, label)
	}
	sort.Strings(providers)

	return DNSClassification{
		Providers: providers,
		Leak:      leaksOutsideISP(providers, isp),
	}
}

func (c *ResolverClassifier) labelFor(ctx context.Context, addr, isp string) string {
	if label, ok := wellKnownResolvers[addr]; ok {
		return label
	}
	names, err := c.resolver.LookupAddr(ctx, addr)
	if err == nil && len(names) > 0 {
		return strings.TrimSuffix(names[0], ".")
	}
	if strings.TrimSpace(isp) != "" {
		return isp
	}
	return unknownField
}

// leaksOutsideISP flags resolvers that do not look like the session's
// own ISP. Heuristic: a single shared token between the ISP name and the
// provider label counts as a match.
func leaksOutsideISP(providers []string, isp string) bool {
	tokens := ispTokens(isp)
	if len(tokens) == 0 {
		return false
	}
	for _, provider := range providers {
		if provider == unknownField {
			continue
		}
		if !containsAnyToken(strings.ToLower(provider), tokens) {
			return true
		}
	}
	return false
}

func ispTokens(isp string) []string {
	res := []string{}
	for _, token := range strings.Fields(strings.ToLower(isp)) {
		if len(token) >= 4 {
			res = append(res, token)
		}
	}
	return res
}

func containsAnyToken(label string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(label, token) {
			return true
		}
	}
	return false
}
