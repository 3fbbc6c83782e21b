package waktunya

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Lookup is the best-effort answer of the enrichment service. Individual
// fields may be empty; they default to Unknown at profile assembly.
type Lookup struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	IP       string  `json:"query"`
	City     string  `json:"city"`
	Region   string  `json:"regionName"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	ISP      string  `json:"isp"`
	Org      string  `json:"org"`
	Timezone string  `json:"timezone"`
}

// Enricher resolves the session's identity/location profile. A failed or
// timed-out lookup resolves to the fallback profile upstream, never to a
// stuck refresh cycle.
type Enricher interface {
	Lookup(ctx context.Context) (Lookup, error)
}

const enrichmentTimeout = 10 * time.Second

// HTTPEnricher queries an ip-api.com-compatible endpoint.
type HTTPEnricher struct {
	c *resty.Client
}

func NewHTTPEnricher(baseURL string) *HTTPEnricher {
	return &HTTPEnricher{
		c: resty.New().SetBaseURL(baseURL).SetTimeout(enrichmentTimeout),
	}
}

func (e *HTTPEnricher) Lookup(ctx context.Context) (Lookup, error) {
	var lookup Lookup
	res, err := e.c.R().
		SetContext(ctx).
		SetResult(&lookup).
		Get("/json")
	if err != nil {
		return lookup, err
	}
	if res.IsError() {
		return lookup, fmt.Errorf("enrichment lookup: %s", res.Status())
	}
	if lookup.Status == "fail" {
		return lookup, fmt.Errorf("enrichment lookup rejected: %s", lookup.Message)
	}
	return lookup, nil
}
