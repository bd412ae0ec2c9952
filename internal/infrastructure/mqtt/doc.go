// Package mqtt provides MQTT client connectivity for the Wink bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The bridge speaks MQTT on one side and the Wink hub's aprontest tool
// on the other. This package owns only the broker leg: the connection,
// its lifecycle callbacks, and raw publish/subscribe. Topic naming for
// devices lives in the bridge package, which drives this client through
// a narrow interface.
//
//	Wink Hub ↔ bridge.Syncer ↔ mqtt.Client ↔ MQTT Broker
//
// # Connection Lifecycle
//
// Subscriptions are tracked internally and restored after a reconnect.
// The OnConnect callback fires on both the first connection and every
// reconnect, so the syncer hangs its subscribe-and-resync routine
// there rather than assuming subscriptions survive.
//
// A JSON availability document is published retained on
// winkbridge/system/status: status "online" after each connect, status
// "offline" via LWT on unexpected drops and explicitly on graceful
// shutdown, with a reason field telling the two apart.
//
// # Security Considerations
//
//   - TLS is available for brokers outside the LAN (cfg.Broker.TLS=true)
//   - Username/password auth is optional; many hub deployments run an
//     anonymous broker on the local network
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Watch every device command aimed at the bridge
//	err = client.Subscribe("home/wink/+/set", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a device status document
//	client.Publish("home/wink/4/status", []byte(`{"Level":128}`), 1, true)
package mqtt
