// Package ws serves the websocket endpoint: it upgrades HTTP requests,
// assigns opaque connection ids, drives connect/disconnect through the
// lifecycle manager, routes inbound request actions, and implements the
// send-to-connection primitive over live sockets. The same listener also
// serves /healthz and Prometheus /metrics.
package ws
