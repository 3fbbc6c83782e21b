package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/cskr/pubsub/v2"
	waktunya "github.com/relvinarsenio/waktunya-connect"
	"github.com/spf13/pflag"
)

// limits the amount of connected event-stream subscribers
const pubSubChannelCapacity = 1024

var (
	port                = pflag.String("port", "8080", "port to serve session state on")
	room                = pflag.String("room", waktunya.GetRoomName(), "room to join")
	channelURL          = pflag.String("channel-url", waktunya.GetChannelURL(), "presence channel base URL")
	enrichmentURL       = pflag.String("enrichment-url", waktunya.GetEnrichmentURL(), "identity enrichment base URL")
	refreshPeriodString = pflag.String("refresh", "5m", "identity refresh period")
)

func main() {
	pflag.Parse()

	if !versioninfo.DirtyBuild {
		log.Println("Revision:", versioninfo.Revision)
	}

	events := pubsub.New[string, waktunya.Event](pubSubChannelCapacity)

	channel, err := waktunya.NewWebsocketChannel(*channelURL, *room)
	if err != nil {
		log.Fatalln(err)
	}

	session := waktunya.NewSession(
		events,
		channel,
		waktunya.NewHTTPEnricher(*enrichmentURL),
		waktunya.NewResolverClassifier(net.DefaultResolver),
		waktunya.SessionOptions{
			RefreshPeriod: getRefreshPeriod(),
			Referrer:      waktunya.GetReferrer(),
		},
	)
	session.Start()
	defer session.Stop()

	server := waktunya.NewServerWithOptions(*port, events, session)
	go server.Run()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("shutting down")
}

func init() {
	if portFromEnv, ok := os.LookupEnv("PORT"); ok {
		log.Println("Overriding the PORT via the environment variable")
		*port = portFromEnv
	}
}

func getRefreshPeriod() time.Duration {
	d, err := time.ParseDuration(*refreshPeriodString)
	if err != nil {
		log.Printf("provided refresh period ignored: '%s', using default: '%v'",
			*refreshPeriodString, waktunya.DefaultRefreshPeriod)
		return waktunya.DefaultRefreshPeriod
	}
	return d
}
