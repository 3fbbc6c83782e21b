package waktunya

import (
	"time"

	"github.com/cskr/pubsub/v2"
)

// SessionOptions carry the locally known facts of one visit.
type SessionOptions struct {
	RefreshPeriod time.Duration
	Referrer      string
}

// Session wires one visit together: the room channel feeding the
// presence tracker, the identity refresh cycle and the session clock.
// The two timers belong to the session and are released on Stop, on all
// exit paths.
type Session struct {
	events    *pubsub.PubSub[string, Event]
	channel   Channel
	tracker   *Tracker
	refresher *Refresher
	clock     *SessionClock
}

func NewSession(
	events *pubsub.PubSub[string, Event],
	channel Channel,
	enricher Enricher,
	classifier DNSClassifier,
	opts SessionOptions,
) *Session {
	tracker := NewTracker(events)
	tracker.Attach(channel)
	refresher := NewRefresher(events, enricher, classifier, opts.RefreshPeriod, opts.Referrer)
	return &Session{
		events:    events,
		channel:   channel,
		tracker:   tracker,
		refresher: refresher,
		clock:     NewSessionClock(events, refresher.VisitTime),
	}
}

func (s *Session) Start() {
	s.refresher.Start()
	s.clock.Start()
	s.channel.Start()
}

func (s *Session) Stop() {
	s.clock.Stop()
	s.refresher.Stop()
	_ = s.channel.Close()
}

// The accessors below are the session's whole surface towards the
// rendering layer.

func (s *Session) Count() int {
	return s.tracker.Count()
}

func (s *Session) State() ConnectionState {
	return s.tracker.State()
}

func (s *Session) Visitors() []Visitor {
	return s.tracker.Visitors()
}

// Profile is nil while the first enrichment lookup is pending.
func (s *Session) Profile() *SessionProfile {
	return s.refresher.Profile()
}

func (s *Session) Elapsed() int64 {
	return s.clock.Elapsed()
}
