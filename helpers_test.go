package waktunya

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeChannel drives the tracker in tests without a network.
type fakeChannel struct {
	onOpen    func()
	onClose   func(string)
	onError   func(error)
	onMessage func([]byte)

	started bool
	closed  bool
	sent    [][]byte
}

func newFakeChannel() *fakeChannel { return &fakeChannel{} }

func (c *fakeChannel) OnOpen(f func()) { c.onOpen = f }
func (c *fakeChannel) OnClose(f func(string)) { c.onClose = f }
func (c *fakeChannel) OnError(f func(error)) { c.onError = f }
func (c *fakeChannel) OnMessage(f func([]byte)) { c.onMessage = f }

func (c *fakeChannel) Start() { c.started = true }

func (c *fakeChannel) Send(data []byte) error {
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func (c *fakeChannel) emitOpen() {
	if c.onOpen != nil {
		c.onOpen()
	}
}

func (c *fakeChannel) emitClose(reason string) {
	if c.onClose != nil {
		c.onClose(reason)
	}
}

func (c *fakeChannel) emitError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *fakeChannel) emitMessage(data string) {
	if c.onMessage != nil {
		c.onMessage([]byte(data))
	}
}

// scriptedEnricher returns queued lookups or errors, optionally holding
// each call until released.
type scriptedEnricher struct {
	mu      sync.Mutex
	lookups []Lookup
	errs    []error
	calls   int
	gate    chan struct{}
}

func (e *scriptedEnricher) Lookup(ctx context.Context) (Lookup, error) {
	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
			return Lookup{}, ctx.Err()
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if len(e.errs) > 0 {
		err := e.errs[0]
		e.errs = e.errs[1:]
		if err != nil {
			return Lookup{}, err
		}
	}
	if len(e.lookups) == 0 {
		return Lookup{}, errors.New("no scripted lookup left")
	}
	lookup := e.lookups[0]
	if len(e.lookups) > 1 {
		e.lookups = e.lookups[1:]
	}
	return lookup, nil
}

func (e *scriptedEnricher) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func receiveEventsTill(listener chan Event, name string, timeout time.Duration) ([]Event, error) {
	res := []Event{}
	for {
		select {
		case receivedEvent := <-listener:
			res = append(res, receivedEvent)
			if receivedEvent.Name == name {
				return res, nil
			}
		case <-time.After(timeout):
			return res, errors.New("timed out waiting for event: " + name)
		}
	}
}
