package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
// Status documents are tiny; anything near this limit is a bug upstream.
const maxPayloadSize = 1 << 20

// Publish sends a message to the specified MQTT topic.
//
// QoS levels follow MQTT semantics: 0 fire-and-forget, 1 at-least-once,
// 2 exactly-once. Retained messages are stored by the broker and
// delivered to new subscribers immediately; the bridge retains status
// and discovery documents, never commands.
//
// Example:
//
//	err := client.Publish("home/wink/4/status", doc, 1, true)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
