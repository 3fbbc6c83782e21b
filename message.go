package waktunya

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	addMessageType    = "add"
	removeMessageType = "remove"
)

// presenceMessage is the tagged union the room emits for membership
// changes: {"type":"add","id":...,"lat":...,"lng":...} or
// {"type":"remove","id":...}.
type presenceMessage struct {
	Type string  `json:"type"`
	ID   string  `json:"id"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func parsePresenceMessage(data []byte) (presenceMessage, error) {
	var msg presenceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("unparseable presence message: %w", err)
	}
	switch msg.Type {
	case addMessageType, removeMessageType:
	default:
		return msg, fmt.Errorf("unknown presence message type: %q", msg.Type)
	}
	if msg.ID == "" {
		return msg, errors.New("presence message without an id")
	}
	return msg, nil
}
