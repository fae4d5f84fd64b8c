package client

import (
	"strings"
	"testing"
)

func TestWSURLFromEnv(t *testing.T) {
	t.Setenv("RELAY_WS", "")
	if got := wsURLFromEnv(); got != "ws://127.0.0.1:8080/ws" {
		t.Fatalf("default url = %q", got)
	}
	t.Setenv("RELAY_WS", "ws://example:9/ws")
	if got := wsURLFromEnv(); got != "ws://example:9/ws" {
		t.Fatalf("env url = %q", got)
	}
}

func TestFormatEvent(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"event":"channel_message","channelId":"General","name":"Al","content":"hi"}`, "[General] Al: hi"},
		{`{"event":"subscriber_sub","channelId":"General","subscriberId":"c1"}`, "[General] * c1 joined"},
		{`{"event":"subscriber_unsub","channelId":"General","subscriberId":"c1"}`, "[General] * c1 left"},
		{`{"event":"error","message":"unknown action: fly"}`, "! unknown action: fly"},
		{`not json`, "not json"},
	}
	for _, tc := range cases {
		if got := formatEvent([]byte(tc.raw)); got != tc.want {
			t.Fatalf("formatEvent(%s) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestChannelCommandTree(t *testing.T) {
	root := NewRoot()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	if !strings.Contains(strings.Join(names, " "), "channel") {
		t.Fatalf("commands: %v", names)
	}
}
