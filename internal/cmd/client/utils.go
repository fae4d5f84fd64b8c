package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gorilla/websocket"
)

// wsURLFromEnv returns the websocket URL from RELAY_WS or a default.
func wsURLFromEnv() string {
	if u := os.Getenv("RELAY_WS"); u != "" {
		return u
	}
	return "ws://127.0.0.1:8080/ws"
}

// dialContext dials the Relay websocket endpoint.
func dialContext(ctx context.Context, url string) (*websocket.Conn, error) {
	if url == "" {
		url = wsURLFromEnv()
	}
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return c, nil
}

// formatEvent renders one inbound event as a terminal line.
func formatEvent(raw []byte) string {
	var evt struct {
		Event        string `json:"event"`
		ChannelID    string `json:"channelId"`
		SubscriberID string `json:"subscriberId"`
		Name         string `json:"name"`
		Content      string `json:"content"`
		Message      string `json:"message"`
	}
	if err := json.Unmarshal(raw, &evt); err != nil {
		return string(raw)
	}
	switch evt.Event {
	case "channel_message":
		return fmt.Sprintf("[%s] %s: %s", evt.ChannelID, evt.Name, evt.Content)
	case "subscriber_sub":
		return fmt.Sprintf("[%s] * %s joined", evt.ChannelID, evt.SubscriberID)
	case "subscriber_unsub":
		return fmt.Sprintf("[%s] * %s left", evt.ChannelID, evt.SubscriberID)
	case "error":
		return fmt.Sprintf("! %s", evt.Message)
	default:
		return string(raw)
	}
}
