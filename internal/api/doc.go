// Package api implements the bridge's diagnostic HTTP and WebSocket server.
//
// This package provides:
//   - REST endpoints for inspecting and commanding Wink devices
//   - the recent broker-traffic ring, for debugging topic flows
//   - a WebSocket hub that streams ring appends in real time
//   - Middleware stack (request ID, logging, recovery, body limit)
//
// # Architecture
//
// The server sits beside the MQTT sync engine rather than in front of it.
// Reads go straight to the hub through the apron controller; writes reuse
// the engine's decode-and-set path, so an HTTP command behaves exactly
// like the matching MQTT set topic, including the repoll that follows
// every write.
//
// # Security
//
// There is no authentication layer. The server is for the hub owner's
// LAN and binds loopback unless configured otherwise; api.host is the
// exposure switch.
//
// # Graceful Degradation
//
// The server operates without a broker connection. Reads and WebSocket
// connections keep working; health and metrics simply report MQTT as
// down.
package api
