package waktunya

import (
	"context"
	"time"

	"github.com/Arceliar/phony"
	"github.com/cskr/pubsub/v2"
)

const clockPeriod = time.Second

// SessionClock publishes elapsed whole seconds since the session's visit
// time, once per second. Purely derived, no I/O; elapsed never decreases
// for a fixed visit time, even if the wall clock steps backwards.
type SessionClock struct {
	phony.Inbox
	events    *pubsub.PubSub[string, Event]
	visitTime func() time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	elapsed int64
}

// NewSessionClock reads the visit time through the given accessor so the
// clock never touches the refresher's state directly.
func NewSessionClock(events *pubsub.PubSub[string, Event], visitTime func() time.Time) *SessionClock {
	return &SessionClock{
		events:    events,
		visitTime: visitTime,
	}
}

func (c *SessionClock) Start() {
	c.Act(c, func() {
		if c.started {
			return
		}
		c.started = true
		c.ctx, c.cancel = context.WithCancel(context.Background())
		go c.tickForever(c.ctx)
	})
}

// Stop releases the ticker; returns after the clock can no longer fire.
func (c *SessionClock) Stop() {
	phony.Block(c, func() {
		if c.cancel != nil {
			c.cancel()
		}
	})
}

// Tick recomputes the elapsed duration. Driven by the internal ticker;
// exported so tests can tick deterministically.
func (c *SessionClock) Tick() {
	c.Act(c, func() {
		visitTime := c.visitTime()
		if visitTime.IsZero() {
			return
		}
		elapsed := int64(time.Since(visitTime) / time.Second)
		if elapsed < c.elapsed {
			elapsed = c.elapsed
		}
		c.elapsed = elapsed
		c.events.Pub(NewEventWithParam(SessionSecondsEvent, elapsed), Topic)
	})
}

// Elapsed returns the last computed elapsed duration in seconds.
func (c *SessionClock) Elapsed() int64 {
	var res int64
	phony.Block(c, func() {
		res = c.elapsed
	})
	return res
}

func (c *SessionClock) tickForever(ctx context.Context) {
	ticker := time.NewTicker(clockPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}
