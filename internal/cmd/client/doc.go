// Package client provides the `relay` command-line client.
//
// The CLI talks to the Relay websocket endpoint to perform common channel
// operations from a terminal. It is primarily intended for developers and
// operators.
//
// # Address configuration
//
// The websocket URL is read from the RELAY_WS environment variable
// (default ws://127.0.0.1:8080/ws) or the --url flag.
//
// Usage
//
//	# Join a channel and stream its events until interrupted; stdin lines
//	# are sent as messages.
//	relay channel listen --channel General --name alice
//
//	# Post a single message and exit
//	relay channel send --channel General --name alice --content "hello"
//
//	# Print the first page of a channel's history
//	relay channel history --channel General
package client
