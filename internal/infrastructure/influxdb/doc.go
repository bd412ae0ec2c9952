// Package influxdb is the bridge's optional attribute telemetry sink.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched writes, and health monitoring.
//
// # Purpose
//
// Every successful device poll produces one sample per numeric or
// boolean attribute under the attribute_value measurement, tagged with
// device id, device name, and attribute description. That gives dimmer
// levels, on/off transitions, and sensor readings a history without the
// bridge itself ever holding state.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "home",
//	    Bucket:  "wink",
//	}
//
//	client, err := influxdb.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteAttribute(2, "Bedroom Fan", "Level", 128)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors surface via the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
