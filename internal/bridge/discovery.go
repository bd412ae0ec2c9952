package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/nerrad567/wink-bridge/internal/apron"
)

// DiscoveryMessage is a rendered Home Assistant discovery document plus
// the component it registers under.
type DiscoveryMessage struct {
	Component string
	Payload   []byte
}

// haDevice is the device registry block shared by every component.
type haDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// lightDiscovery configures a brightness-capable mqtt light entity.
type lightDiscovery struct {
	Platform                string   `json:"platform"`
	UniqueID                string   `json:"unique_id"`
	Name                    string   `json:"name"`
	StateTopic              string   `json:"state_topic"`
	StateValueTemplate      string   `json:"state_value_template"`
	CommandTopic            string   `json:"command_topic"`
	OnCommandType           string   `json:"on_command_type"`
	PayloadOff              string   `json:"payload_off"`
	PayloadOn               string   `json:"payload_on"`
	BrightnessStateTopic    string   `json:"brightness_state_topic"`
	BrightnessCommandTopic  string   `json:"brightness_command_topic"`
	BrightnessValueTemplate string   `json:"brightness_value_template"`
	BrightnessScale         uint32   `json:"brightness_scale"`
	Device                  haDevice `json:"device"`
}

// switchDiscovery configures an mqtt switch entity.
type switchDiscovery struct {
	Platform      string   `json:"platform"`
	UniqueID      string   `json:"unique_id"`
	Name          string   `json:"name"`
	StateTopic    string   `json:"state_topic"`
	ValueTemplate string   `json:"value_template"`
	CommandTopic  string   `json:"command_topic"`
	PayloadOn     string   `json:"payload_on"`
	PayloadOff    string   `json:"payload_off"`
	Device        haDevice `json:"device"`
}

// DeviceDiscovery renders the Home Assistant discovery document for a
// device.
//
// A device with a Level attribute becomes a dimmable light; otherwise an
// On_Off attribute makes it a switch. Devices with neither return
// ErrNoArchetype. The entity state and commands ride the bridge's own
// status and single-attribute set topics, so Home Assistant and plain
// MQTT users see identical behaviour.
func DeviceDiscovery(topics Topics, dev *apron.Device) (*DiscoveryMessage, error) {
	if level := dev.Attribute("Level"); level != nil {
		return lightMessage(topics, dev, level)
	}
	if onOff := dev.Attribute("On_Off"); onOff != nil {
		return switchMessage(topics, dev, onOff)
	}
	return nil, fmt.Errorf("%w: device %d (%s)", ErrNoArchetype, dev.ID, dev.Name)
}

func lightMessage(topics Topics, dev *apron.Device, level *apron.Attribute) (*DiscoveryMessage, error) {
	var scale uint32
	switch level.Type {
	case apron.TypeUInt8:
		scale = math.MaxUint8
	case apron.TypeUInt16:
		scale = math.MaxUint16
	case apron.TypeUInt32:
		scale = math.MaxUint32
	case apron.TypeBool:
		scale = 1
	default:
		return nil, fmt.Errorf("device %d has a %s Level attribute; share its aprontest output in a bug report", dev.ID, level.Type)
	}

	payload, err := json.Marshal(lightDiscovery{
		Platform:                "mqtt",
		UniqueID:                uniqueID(topics, dev.ID),
		Name:                    dev.Name,
		StateTopic:              topics.Status(dev.ID),
		StateValueTemplate:      "{% if value_json.Level > 0 %}1{% else %}0{% endif %}",
		CommandTopic:            topics.SetAttribute(dev.ID, level.ID),
		OnCommandType:           "brightness",
		PayloadOff:              "0",
		PayloadOn:               "1",
		BrightnessStateTopic:    topics.Status(dev.ID),
		BrightnessCommandTopic:  topics.SetAttribute(dev.ID, level.ID),
		BrightnessValueTemplate: "{{value_json.Level}}",
		BrightnessScale:         scale,
		Device:                  registryDevice(dev),
	})
	if err != nil {
		return nil, err
	}
	return &DiscoveryMessage{Component: "light", Payload: payload}, nil
}

func switchMessage(topics Topics, dev *apron.Device, onOff *apron.Attribute) (*DiscoveryMessage, error) {
	// The hub's numeric on/off attributes treat zero as on.
	var payloadOn, payloadOff string
	switch onOff.Type {
	case apron.TypeUInt8:
		payloadOn, payloadOff = "0", "255"
	case apron.TypeUInt16:
		payloadOn, payloadOff = "0", "65535"
	case apron.TypeUInt32:
		payloadOn, payloadOff = "0", "4294967295"
	case apron.TypeUInt64:
		payloadOn, payloadOff = "0", strconv.FormatUint(math.MaxUint64, 10)
	case apron.TypeBool:
		payloadOn, payloadOff = "TRUE", "FALSE"
	default:
		payloadOn, payloadOff = "ON", "OFF"
	}

	payload, err := json.Marshal(switchDiscovery{
		Platform:      "mqtt",
		UniqueID:      uniqueID(topics, dev.ID),
		Name:          dev.Name,
		StateTopic:    topics.Status(dev.ID),
		ValueTemplate: "{{ value_json.On_Off | upper }}",
		CommandTopic:  topics.SetAttribute(dev.ID, onOff.ID),
		PayloadOn:     payloadOn,
		PayloadOff:    payloadOff,
		Device:        registryDevice(dev),
	})
	if err != nil {
		return nil, err
	}
	return &DiscoveryMessage{Component: "switch", Payload: payload}, nil
}

// uniqueID is the opaque key Home Assistant files the entity under.
// Changing its format would duplicate every entity on upgrade, so the
// doubled slash stays.
func uniqueID(topics Topics, id apron.DeviceID) string {
	return fmt.Sprintf("%s/%d", topics.Prefix(), id)
}

func registryDevice(dev *apron.Device) haDevice {
	meta := dev.Meta()
	return haDevice{
		Identifiers:  []string{fmt.Sprintf("wink_%d", dev.ID)},
		Name:         dev.Name,
		Manufacturer: meta.Manufacturer,
		Model:        meta.Product,
		SWVersion:    meta.Version,
	}
}
