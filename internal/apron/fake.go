package apron

import (
	"context"
	"fmt"
	"sync"
)

// Catalog ids served by the fake.
const (
	fakeFanID   DeviceID = 2
	fakeLightID DeviceID = 4
)

// FakeController serves a fixed two-device catalog without a hub: a
// Z-Wave fan controller with the full identity header and a bare ZigBee
// on/off light. Set writes land in memory and read back as both the
// current and pending value on later describes, which is enough to watch
// the whole bridge loop behave on a development machine.
type FakeController struct {
	mu     sync.Mutex
	values map[fakeKey]Value
}

type fakeKey struct {
	device    DeviceID
	attribute AttributeID
}

// NewFakeController returns an empty-state fake.
func NewFakeController() *FakeController {
	return &FakeController{
		values: make(map[fakeKey]Value),
	}
}

// List implements Controller.
func (f *FakeController) List(ctx context.Context) ([]DeviceSummary, error) {
	return []DeviceSummary{
		{ID: fakeFanID, Name: "Bedroom Fan"},
		{ID: fakeLightID, Name: "Bedroom Light"},
	}, nil
}

// Describe implements Controller.
func (f *FakeController) Describe(ctx context.Context, id DeviceID) (*Device, error) {
	switch id {
	case fakeFanID:
		return f.describeFan(), nil
	case fakeLightID:
		return f.describeLight(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownDevice, id)
	}
}

// Set implements Controller.
func (f *FakeController) Set(ctx context.Context, id DeviceID, attribute AttributeID, value Value) error {
	if id != fakeFanID && id != fakeLightID {
		return fmt.Errorf("%w: %d", ErrUnknownDevice, id)
	}
	if attribute < 1 || attribute > 5 {
		return fmt.Errorf("%w: %d", ErrUnknownAttribute, attribute)
	}
	if value.IsNoValue() {
		return ErrNoValue
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[fakeKey{id, attribute}] = value
	return nil
}

func (f *FakeController) describeFan() *Device {
	gang := uint32(3)
	generic, specific := uint8(0x11), uint8(0x08)
	manufacturer := uint16(0x0063)
	productType := uint16(0x4944)
	productNumber := uint16(0x3131)

	return &Device{
		ID:             fakeFanID,
		Name:           "Bedroom Fan",
		Status:         "ONLINE",
		GangID:         &gang,
		GenericType:    &generic,
		SpecificType:   &specific,
		ManufacturerID: &manufacturer,
		ProductType:    &productType,
		ProductNumber:  &productNumber,
		Attributes: []Attribute{
			f.attribute(fakeFanID, 1, "GenericValue", TypeUInt8, true, true, Uint8Value(0)),
			f.attribute(fakeFanID, 3, "Level", TypeUInt8, true, true, Uint8Value(0)),
			f.attribute(fakeFanID, 4, "Up_Down", TypeBool, false, true, NoValue()),
			f.attribute(fakeFanID, 5, "StopMovement", TypeBool, false, true, NoValue()),
		},
	}
}

func (f *FakeController) describeLight() *Device {
	return &Device{
		ID:   fakeLightID,
		Name: "Bedroom Light",
		Attributes: []Attribute{
			f.attribute(fakeLightID, 1, "On_Off", TypeBool, true, true, BoolValue(false)),
		},
	}
}

// attribute builds one catalog row, with any stored write shadowing the
// default in both value columns. Write-only attributes always read back
// empty, like the real hub's momentary controls.
func (f *FakeController) attribute(device DeviceID, id AttributeID, description string, t Type, readable, writable bool, def Value) Attribute {
	value := def
	if readable {
		f.mu.Lock()
		if stored, ok := f.values[fakeKey{device, id}]; ok {
			value = stored
		}
		f.mu.Unlock()
	}
	return Attribute{
		ID:          id,
		Description: description,
		Type:        t,
		Readable:    readable,
		Writable:    writable,
		Current:     value,
		Setting:     value,
	}
}
