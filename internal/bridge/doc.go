// Package bridge keeps a Wink hub and an MQTT broker in agreement.
//
// This package owns the bridge's topic grammar, the sync engine that moves
// state and commands between the hub and the broker, and the Home Assistant
// discovery announcements.
//
// # Architecture
//
// The syncer sits between the hub controller and the broker:
//
//	┌─────────────────┐  aprontest  ┌─────────────────┐   MQTT
//	│    Wink Hub     │◄───────────►│     Syncer      │◄────────► Broker
//	│   (Z-Wave/ZB)   │             │   (this pkg)    │
//	└─────────────────┘             └─────────────────┘
//
// # Topics
//
// Every conversation happens under a configurable prefix (default
// "home/wink/"):
//
//	home/wink/4/status    retained JSON state document (published)
//	home/wink/4/set       JSON batch command (subscribed)
//	home/wink/4/3/set     plain-text single-attribute command (subscribed)
//
// Discovery announcements go to a separate namespace understood by Home
// Assistant, and a listen topic ("homeassistant/status" by convention)
// triggers a re-announcement when Home Assistant restarts.
//
// # Key Responsibilities
//
//   - Parse and format the bridge's MQTT topics
//   - Apply set commands to the hub via the controller
//   - Poll device state and publish retained status documents
//   - Re-poll promptly after writes so state converges fast
//   - Announce devices as Home Assistant lights and switches
//   - Keep a bounded diagnostic log of broker traffic
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
package bridge
