package waktunya

import "os"

func GetRoomName() string {
	if room, ok := os.LookupEnv("WAKTUNYA_ROOM"); ok {
		return room
	}
	return "lobby"
}

func GetChannelURL() string {
	if url, ok := os.LookupEnv("WAKTUNYA_CHANNEL_URL"); ok {
		return url
	}
	return "wss://presence.waktunya.dev/parties/main"
}

func GetEnrichmentURL() string {
	if url, ok := os.LookupEnv("WAKTUNYA_ENRICHMENT_URL"); ok {
		return url
	}
	return "http://ip-api.com"
}

func GetReferrer() string {
	return os.Getenv("WAKTUNYA_REFERRER")
}
