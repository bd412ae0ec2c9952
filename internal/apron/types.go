package apron

import "fmt"

// DeviceID is the hub's master id for a paired device. Id 0 is never a real
// device; the bridge reserves it to mean "every device".
type DeviceID uint32

// AttributeID numbers an attribute within one device's table.
type AttributeID uint32

// Type is an attribute's declared type, keyed by the hub's TYPE column tokens.
type Type string

// Attribute types the hub reports.
const (
	TypeBool   Type = "BOOL"
	TypeString Type = "STRING"
	TypeUInt8  Type = "UINT8"
	TypeUInt16 Type = "UINT16"
	TypeUInt32 Type = "UINT32"
	TypeUInt64 Type = "UINT64"
)

// ParseType converts a TYPE column token to a Type. The match is exact;
// unknown tokens error so callers can drop the row rather than guess.
func ParseType(token string) (Type, error) {
	switch Type(token) {
	case TypeBool, TypeString, TypeUInt8, TypeUInt16, TypeUInt32, TypeUInt64:
		return Type(token), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, token)
	}
}

// bits returns the numeric width of a Type, or 0 for non-numeric types.
func (t Type) bits() int {
	switch t {
	case TypeUInt8:
		return 8
	case TypeUInt16:
		return 16
	case TypeUInt32:
		return 32
	case TypeUInt64:
		return 64
	default:
		return 0
	}
}

// Attribute is one row of a device's attribute table.
type Attribute struct {
	ID          AttributeID `json:"id"`
	Description string      `json:"description"`
	Type        Type        `json:"type"`
	Readable    bool        `json:"readable"`
	Writable    bool        `json:"writable"`

	// Current is the device-reported value (the GET column); Setting is a
	// pending target the hub has not yet confirmed (the SET column). Both
	// are whatever the hub last reported; the bridge never synthesises or
	// clears them.
	Current Value `json:"current_value"`
	Setting Value `json:"setting_value"`
}

// Device is the full description of one paired device. It is rebuilt from
// hub output on every describe and never mutated in place.
type Device struct {
	ID     DeviceID `json:"id"`
	Name   string   `json:"name"`
	Status string   `json:"status,omitempty"`

	// Z-Wave identity fields. Older (ZigBee-era) firmware omits them all;
	// each is independently optional because the hub prints them on
	// separate header lines.
	GangID         *uint32 `json:"gang_id,omitempty"`
	GenericType    *uint8  `json:"generic_type,omitempty"`
	SpecificType   *uint8  `json:"specific_type,omitempty"`
	ManufacturerID *uint16 `json:"manufacturer_id,omitempty"`
	ProductType    *uint16 `json:"product_type,omitempty"`
	ProductNumber  *uint16 `json:"product_number,omitempty"`

	// Attributes in table order. Descriptions are unique per device and
	// serve as the lookup key in status payloads.
	Attributes []Attribute `json:"attributes"`
}

// Attribute returns the attribute with the given description, or nil.
func (d *Device) Attribute(description string) *Attribute {
	for i := range d.Attributes {
		if d.Attributes[i].Description == description {
			return &d.Attributes[i]
		}
	}
	return nil
}

// AttributeByID returns the attribute with the given id, or nil.
func (d *Device) AttributeByID(id AttributeID) *Attribute {
	for i := range d.Attributes {
		if d.Attributes[i].ID == id {
			return &d.Attributes[i]
		}
	}
	return nil
}

// DeviceSummary is one row of the hub's device list.
type DeviceSummary struct {
	ID   DeviceID `json:"id"`
	Name string   `json:"name"`
}
