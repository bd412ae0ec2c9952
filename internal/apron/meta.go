package apron

import "fmt"

// DeviceMeta is the human-readable identity of a device, for discovery
// payloads and the diagnostic API.
type DeviceMeta struct {
	Manufacturer string `json:"manufacturer"`
	Product      string `json:"product"`
	Version      string `json:"version"`
}

// productKey identifies a Z-Wave product line.
type productKey struct {
	manufacturer  uint16
	productNumber uint16
	productType   uint16
}

// knownProducts maps Z-Wave identities observed in the wild to their
// marketing names.
var knownProducts = map[productKey]DeviceMeta{
	{0x0063, 0x3131, 0x4944}: {Manufacturer: "GE (Jasco Products)", Product: "Fan Control Switch"},
	{0x0063, 0x3036, 0x4952}: {Manufacturer: "GE (Jasco Products)", Product: "Switch"},
	{0x027a, 0xa001, 0xa000}: {Manufacturer: "Zooz", Product: "S2 On Off Wall Switch"},
}

// Meta resolves the device's identity.
//
// Z-Wave devices carry manufacturer/product ids in the describe header;
// known ids resolve through the product table, unknown ones are reported
// with their raw hex identity. ZigBee-era firmware prints no header ids at
// all, so identity falls back to the ManufacturerName, ModelIdentifier and
// HWVersion attributes. A device reporting only part of its header
// identity is malformed and reported as such.
func (d *Device) Meta() DeviceMeta {
	switch {
	case d.ManufacturerID != nil && d.ProductNumber != nil && d.ProductType != nil:
		return zwaveMeta(*d.ManufacturerID, *d.ProductNumber, *d.ProductType)
	case d.ManufacturerID == nil && d.ProductNumber == nil && d.ProductType == nil:
		return d.attributeMeta()
	default:
		return DeviceMeta{Manufacturer: "Error", Product: "Error"}
	}
}

func zwaveMeta(manufacturer, productNumber, productType uint16) DeviceMeta {
	if meta, ok := knownProducts[productKey{manufacturer, productNumber, productType}]; ok {
		return meta
	}
	return DeviceMeta{
		Manufacturer: fmt.Sprintf("Unknown (%04x)", manufacturer),
		Product:      fmt.Sprintf("Unknown (%04x.%04x.%04x)", manufacturer, productNumber, productType),
	}
}

// attributeMeta reads identity from the attributes ZigBee devices expose.
func (d *Device) attributeMeta() DeviceMeta {
	meta := DeviceMeta{}
	if a := d.Attribute("ManufacturerName"); a != nil {
		if t, ok := a.Current.Type(); ok && t == TypeString {
			meta.Manufacturer = a.Current.Text()
		}
	}
	if a := d.Attribute("ModelIdentifier"); a != nil {
		if t, ok := a.Current.Type(); ok && t == TypeString {
			meta.Product = a.Current.Text()
		}
	}
	if a := d.Attribute("HWVersion"); a != nil && !a.Current.IsNoValue() {
		meta.Version = a.Current.Text()
	}
	return meta
}
