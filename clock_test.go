package waktunya

import (
	"testing"
	"time"

	"github.com/cskr/pubsub/v2"
)

func TestElapsedIsDerivedFromVisitTime(t *testing.T) {
	events := pubsub.New[string, Event](64)
	visitTime := time.Now().Add(-10 * time.Second)
	clock := NewSessionClock(events, func() time.Time { return visitTime })

	clock.Tick()

	if got := clock.Elapsed(); got < 10 {
		t.Fatalf("expected at least 10 elapsed seconds, got %d", got)
	}
}

func TestElapsedNeverDecreases(t *testing.T) {
	events := pubsub.New[string, Event](64)
	visitTime := time.Now().Add(-time.Minute)
	clock := NewSessionClock(events, func() time.Time { return visitTime })

	var previous int64
	for i := 0; i < 5; i++ {
		clock.Tick()
		got := clock.Elapsed()
		if got < previous {
			t.Fatalf("tick %d: elapsed decreased from %d to %d", i, previous, got)
		}
		previous = got
	}
}

func TestElapsedClampsAgainstWallClockSteps(t *testing.T) {
	events := pubsub.New[string, Event](64)
	visitTime := time.Now().Add(-time.Minute)
	clock := NewSessionClock(events, func() time.Time { return visitTime })
	clock.Tick()
	before := clock.Elapsed()

	// a wall-clock step backwards shows up as a later visit time
	visitTime = time.Now().Add(-time.Second)
	clock.Tick()

	if got := clock.Elapsed(); got < before {
		t.Fatalf("elapsed decreased from %d to %d", before, got)
	}
}

func TestZeroVisitTimeProducesNoTick(t *testing.T) {
	events := pubsub.New[string, Event](64)
	clock := NewSessionClock(events, func() time.Time { return time.Time{} })

	clock.Tick()

	if got := clock.Elapsed(); got != 0 {
		t.Fatalf("expected 0 before the session has a visit time, got %d", got)
	}
}

func TestTicksArePublished(t *testing.T) {
	events := pubsub.New[string, Event](64)
	listener := events.Sub(Topic)
	defer events.Unsub(listener, Topic)

	visitTime := time.Now().Add(-3 * time.Second)
	clock := NewSessionClock(events, func() time.Time { return visitTime })
	clock.Tick()

	received, err := receiveEventsTill(listener, SessionSecondsEvent, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	last := received[len(received)-1]
	if seconds, ok := last.Properties["param"].(int64); !ok || seconds < 3 {
		t.Fatalf("expected at least 3 published seconds, got %v", last.Properties["param"])
	}
}

func TestStartStopReleasesTicker(t *testing.T) {
	events := pubsub.New[string, Event](64)
	visitTime := time.Now()
	clock := NewSessionClock(events, func() time.Time { return visitTime })
	clock.Start()
	clock.Stop()
	// stopping twice must be safe
	clock.Stop()
}
