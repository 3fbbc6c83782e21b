package waktunya

import (
	"strings"
	"time"
)

const unknownField = "Unknown"

// SessionProfile is the local session's own enriched identity snapshot.
// It describes "me", not the room's visitors, and is replaced wholesale
// on every refresh. VisitTime, PageViews and Referrer are locally known
// and populated regardless of lookup success.
type SessionProfile struct {
	IP           string    `json:"ip"`
	City         string    `json:"city"`
	Region       string    `json:"region"`
	Country      string    `json:"country"`
	Location     Location  `json:"location"`
	ISP          string    `json:"isp"`
	Org          string    `json:"org"`
	Timezone     string    `json:"timezone"`
	DNSProviders []string  `json:"dnsProviders"`
	DNSLeak      bool      `json:"dnsLeak"`
	VisitTime    time.Time `json:"visitTime"`
	PageViews    int       `json:"pageViews"`
	Referrer     string    `json:"referrer"`
}

// FallbackProfile keeps the locally known fields and defaults the rest.
func FallbackProfile(visitTime time.Time, pageViews int, referrer string) SessionProfile {
	return SessionProfile{
		IP:           unknownField,
		City:         unknownField,
		Region:       unknownField,
		Country:      unknownField,
		ISP:          unknownField,
		Org:          unknownField,
		Timezone:     unknownField,
		DNSProviders: []string{},
		VisitTime:    visitTime,
		PageViews:    pageViews,
		Referrer:     orDirect(referrer),
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownField
	}
	return s
}

func orDirect(referrer string) string {
	if strings.TrimSpace(referrer) == "" {
		return "Direct"
	}
	return referrer
}
