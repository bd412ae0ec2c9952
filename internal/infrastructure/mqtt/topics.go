package mqtt

import "fmt"

// The bridge's device topics are configurable and built by the bridge
// package; only the fixed system namespace lives here.
const (
	// TopicPrefixSystem is the base for the bridge's own topics.
	TopicPrefixSystem = "winkbridge/system"
)

// Topics provides builders for the bridge's fixed MQTT topics.
type Topics struct{}

// SystemStatus returns the bridge availability topic. Both the Last Will
// and the graceful online/offline announcements use it, retained.
//
// Example: winkbridge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
