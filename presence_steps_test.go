package waktunya

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cskr/pubsub/v2"
	"github.com/cucumber/godog"
)

type trackerKey struct{}
type channelKey struct{}

var errSutNotFound = errors.New("SUT not found, check step definitions")

func aSessionWithChannel(ctx context.Context, opened bool) (context.Context, error) {
	events := pubsub.New[string, Event](64)
	channel := newFakeChannel()
	tracker := NewTracker(events)
	tracker.Attach(channel)
	ctx = context.WithValue(ctx, trackerKey{}, tracker)
	ctx = context.WithValue(ctx, channelKey{}, channel)
	if opened {
		channel.emitOpen()
	}
	return ctx, nil
}

func anOpenedSession(ctx context.Context) (context.Context, error) {
	return aSessionWithChannel(ctx, true)
}

func aPendingSession(ctx context.Context) (context.Context, error) {
	return aSessionWithChannel(ctx, false)
}

func theRoomAnnouncesAdd(ctx context.Context, id string) error {
	channel, ok := ctx.Value(channelKey{}).(*fakeChannel)
	if !ok {
		return errSutNotFound
	}
	channel.emitMessage(fmt.Sprintf(`{"type":"add","id":%q,"lat":1.0,"lng":2.0}`, id))
	return nil
}

func theRoomAnnouncesRemove(ctx context.Context, id string) error {
	channel, ok := ctx.Value(channelKey{}).(*fakeChannel)
	if !ok {
		return errSutNotFound
	}
	channel.emitMessage(fmt.Sprintf(`{"type":"remove","id":%q}`, id))
	return nil
}

func theRoomSendsGarbage(ctx context.Context) error {
	channel, ok := ctx.Value(channelKey{}).(*fakeChannel)
	if !ok {
		return errSutNotFound
	}
	channel.emitMessage(`{"type":"unknown"}`)
	channel.emitMessage(`not even json`)
	return nil
}

func theChannelOpens(ctx context.Context) error {
	channel, ok := ctx.Value(channelKey{}).(*fakeChannel)
	if !ok {
		return errSutNotFound
	}
	channel.emitOpen()
	return nil
}

func theChannelCloses(ctx context.Context) error {
	channel, ok := ctx.Value(channelKey{}).(*fakeChannel)
	if !ok {
		return errSutNotFound
	}
	channel.emitClose("connection lost")
	return nil
}

func thePresenceCountIs(ctx context.Context, expected int) error {
	tracker, ok := ctx.Value(trackerKey{}).(*Tracker)
	if !ok {
		return errSutNotFound
	}
	if got := tracker.Count(); got != expected {
		return fmt.Errorf("expected presence count %d but found %d", expected, got)
	}
	return nil
}

func theConnectionStateIs(ctx context.Context, expected string) error {
	tracker, ok := ctx.Value(trackerKey{}).(*Tracker)
	if !ok {
		return errSutNotFound
	}
	if got := tracker.State(); got != ConnectionState(expected) {
		return fmt.Errorf("expected connection state %q but found %q", expected, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Step(`^a session whose channel has opened$`, anOpenedSession)
	ctx.Step(`^a session whose channel has not yet opened$`, aPendingSession)
	ctx.Step(`^the room announces an add for "(\S+)"$`, theRoomAnnouncesAdd)
	ctx.Step(`^the room announces a remove for "(\S+)"$`, theRoomAnnouncesRemove)
	ctx.Step(`^the room sends garbage$`, theRoomSendsGarbage)
	ctx.Step(`^the channel opens$`, theChannelOpens)
	ctx.Step(`^the channel closes$`, theChannelCloses)
	ctx.Step(`^the presence count is (\d+)$`, thePresenceCountIs)
	ctx.Step(`^the connection state is "(\S+)"$`, theConnectionStateIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t, // Testing instance that will run subtests.
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
