package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteAttribute records one attribute sample.
//
// The sync engine feeds this on every successful device poll, one call
// per numeric or boolean attribute, so the series tracks exactly what
// the bridge last reported to its MQTT observers. Booleans arrive
// already rendered as 0/1.
//
// The write is non-blocking; points are batched and sent in the
// background. On a disconnected client the sample is dropped: a poll
// must never stall on telemetry.
//
// Example:
//
//	client.WriteAttribute(2, "Bedroom Fan", "Level", 128)
func (c *Client) WriteAttribute(deviceID uint32, deviceName, attribute string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"attribute_value",
		map[string]string{
			"device_id":   strconv.FormatUint(uint64(deviceID), 10),
			"device_name": deviceName,
			"attribute":   attribute,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
