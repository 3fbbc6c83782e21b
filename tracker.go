package waktunya

import (
	"log"
	"time"

	"github.com/Arceliar/phony"
	"github.com/cskr/pubsub/v2"
)

// ConnectionState is the channel health as displayed to the rendering
// layer. Errors are folded into disconnected; the reason travels on the
// published event only.
type ConnectionState string

const (
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
)

// Tracker turns the room's join/leave stream into a consistent visitor
// registry and a single connection state. All mutation happens on the
// actor inbox, so the registry needs no locking. Entering disconnected
// clears the registry: messages may have been missed while the channel
// was down, and the room re-announces its occupants after every open.
type Tracker struct {
	phony.Inbox
	events   *pubsub.PubSub[string, Event]
	registry *Registry
	state    ConnectionState
	clock    func() time.Time
}

func NewTracker(events *pubsub.PubSub[string, Event]) *Tracker {
	return &Tracker{
		events:   events,
		registry: NewRegistry(),
		state:    StateConnecting,
		clock:    time.Now,
	}
}

// Attach registers the tracker against the channel's lifecycle and
// message callbacks. Call before Channel.Start.
func (t *Tracker) Attach(ch Channel) {
	ch.OnOpen(t.ChannelOpened)
	ch.OnClose(t.ChannelClosed)
	ch.OnError(t.ChannelFailed)
	ch.OnMessage(t.HandleMessage)
}

func (t *Tracker) ChannelOpened() {
	t.Act(t, func() {
		t.setStateSync(StateConnected, "")
	})
}

func (t *Tracker) ChannelClosed(reason string) {
	t.Act(t, func() {
		t.setStateSync(StateDisconnected, reason)
	})
}

func (t *Tracker) ChannelFailed(err error) {
	t.Act(t, func() {
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		t.setStateSync(StateDisconnected, reason)
	})
}

// HandleMessage applies one inbound presence message. Messages arriving
// while the channel is not connected are discarded rather than buffered:
// the registry is only trusted while connected, and the room replays the
// current occupants as fresh adds after each open, so a buffered
// pre-open message would be a duplicate at best. A message that fails to
// parse is dropped without touching the registry.
func (t *Tracker) HandleMessage(data []byte) {
	t.Act(t, func() {
		if t.state != StateConnected {
			t.events.Pub(NewEventWithReason(MessageDroppedEvent, "channel not connected"), Topic)
			return
		}
		msg, err := parsePresenceMessage(data)
		if err != nil {
			log.Println("dropping presence message:", err)
			t.events.Pub(NewEventWithReason(MessageDroppedEvent, err.Error()), Topic)
			return
		}
		switch msg.Type {
		case addMessageType:
			if t.registry.Join(msg.ID, Location{Lat: msg.Lat, Lng: msg.Lng}, t.clock()) {
				t.events.Pub(NewEventWithParam(VisitorJoinedEvent, msg.ID), Topic)
				t.publishCountSync()
			}
		case removeMessageType:
			if t.registry.Leave(msg.ID) {
				t.events.Pub(NewEventWithParam(VisitorLeftEvent, msg.ID), Topic)
				t.publishCountSync()
			}
		}
	})
}

func (t *Tracker) setStateSync(next ConnectionState, reason string) {
	if next == t.state {
		return
	}
	t.state = next
	log.Println("connection state:", next)
	ev := NewEventWithParam(ConnectionStateEvent, string(next))
	if reason != "" {
		ev.Properties["reason"] = reason
	}
	t.events.Pub(ev, Topic)
	if next == StateDisconnected {
		t.registry.Clear()
		t.publishCountSync()
	}
}

func (t *Tracker) publishCountSync() {
	t.events.Pub(NewEventWithParam(VisitorsActiveEvent, t.registry.Count()), Topic)
}

// Count returns the current presence count.
func (t *Tracker) Count() int {
	var count int
	phony.Block(t, func() {
		count = t.registry.Count()
	})
	return count
}

// State returns the current connection state.
func (t *Tracker) State() ConnectionState {
	var state ConnectionState
	phony.Block(t, func() {
		state = t.state
	})
	return state
}

// Visitors returns a snapshot of the registry in join order.
func (t *Tracker) Visitors() []Visitor {
	var visitors []Visitor
	phony.Block(t, func() {
		visitors = t.registry.Snapshot()
	})
	return visitors
}
