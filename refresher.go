package waktunya

import (
	"context"
	"log"
	"time"

	"github.com/Arceliar/phony"
	"github.com/cskr/pubsub/v2"
)

const DefaultRefreshPeriod = 5 * time.Minute

// Refresher re-derives the session's own profile once immediately on
// Start and thereafter on a fixed period. Only one lookup is ever in
// flight; a tick firing mid-lookup is skipped rather than queued, so an
// older response can never overwrite a newer one. VisitTime is recorded
// once at Start and survives every subsequent refresh.
type Refresher struct {
	phony.Inbox
	events     *pubsub.PubSub[string, Event]
	enricher   Enricher
	classifier DNSClassifier
	period     time.Duration
	referrer   string

	ctx    context.Context
	cancel context.CancelFunc

	started   bool
	busy      bool
	profile   *SessionProfile
	visitTime time.Time
	pageViews int
}

func NewRefresher(
	events *pubsub.PubSub[string, Event],
	enricher Enricher,
	classifier DNSClassifier,
	period time.Duration,
	referrer string,
) *Refresher {
	if period <= 0 {
		period = DefaultRefreshPeriod
	}
	return &Refresher{
		events:     events,
		enricher:   enricher,
		classifier: classifier,
		period:     period,
		referrer:   referrer,
	}
}

func (r *Refresher) Start() {
	r.Act(r, func() {
		if r.started {
			return
		}
		r.started = true
		r.visitTime = time.Now()
		r.pageViews = 1
		r.ctx, r.cancel = context.WithCancel(context.Background())
		go r.tickForever(r.ctx)
		r.refreshSync()
	})
}

// Stop releases the timer and cancels any in-flight lookup. Safe to call
// more than once; returns after the cycle can no longer fire.
func (r *Refresher) Stop() {
	phony.Block(r, func() {
		if r.cancel != nil {
			r.cancel()
		}
	})
}

// Refresh requests an immediate out-of-band refresh, subject to the same
// skip-if-busy rule as the periodic ticks.
func (r *Refresher) Refresh() {
	r.Act(r, func() {
		r.refreshSync()
	})
}

// RecordPageView bumps the locally tracked page-view counter; it shows
// up in the profile on the next refresh.
func (r *Refresher) RecordPageView() {
	r.Act(r, func() {
		r.pageViews++
	})
}

// Profile returns the current snapshot, or nil while the first lookup is
// still pending.
func (r *Refresher) Profile() *SessionProfile {
	var res *SessionProfile
	phony.Block(r, func() {
		if r.profile != nil {
			snapshot := *r.profile
			res = &snapshot
		}
	})
	return res
}

// VisitTime is the session's first-arrival time, zero before Start.
func (r *Refresher) VisitTime() time.Time {
	var res time.Time
	phony.Block(r, func() {
		res = r.visitTime
	})
	return res
}

func (r *Refresher) tickForever(ctx context.Context) {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh()
		}
	}
}

func (r *Refresher) refreshSync() {
	if r.busy {
		r.events.Pub(NewEventWithReason(RefreshSkippedEvent, "previous refresh still in flight"), Topic)
		return
	}
	if r.ctx == nil || r.ctx.Err() != nil {
		return
	}
	r.busy = true
	go r.lookup(r.ctx)
}

func (r *Refresher) lookup(ctx context.Context) {
	lookup, err := r.enricher.Lookup(ctx)
	if err != nil {
		r.installFallback(err)
		return
	}
	classification := DNSClassification{Providers: []string{}}
	if r.classifier != nil {
		classification = r.classifier.Classify(ctx, lookup.ISP)
	}
	r.install(lookup, classification)
}

func (r *Refresher) install(lookup Lookup, classification DNSClassification) {
	r.Act(r, func() {
		r.busy = false
		profile := SessionProfile{
			IP:           orUnknown(lookup.IP),
			City:         orUnknown(lookup.City),
			Region:       orUnknown(lookup.Region),
			Country:      orUnknown(lookup.Country),
			Location:     Location{Lat: lookup.Lat, Lng: lookup.Lon},
			ISP:          orUnknown(lookup.ISP),
			Org:          orUnknown(lookup.Org),
			Timezone:     orUnknown(lookup.Timezone),
			DNSProviders: classification.Providers,
			DNSLeak:      classification.Leak,
			VisitTime:    r.visitTime,
			PageViews:    r.pageViews,
			Referrer:     orDirect(r.referrer),
		}
		r.profile = &profile
		r.events.Pub(NewEventWithParam(ProfileRefreshedEvent, profile.IP), Topic)
	})
}

func (r *Refresher) installFallback(cause error) {
	r.Act(r, func() {
		r.busy = false
		profile := FallbackProfile(r.visitTime, r.pageViews, r.referrer)
		r.profile = &profile
		log.Println("enrichment lookup failed, using fallback profile:", cause)
		r.events.Pub(NewEventWithReason(ProfileFallbackEvent, cause.Error()), Topic)
	})
}
