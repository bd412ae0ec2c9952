package apron

import (
	"context"
	"errors"
	"testing"
)

func TestFakeController_List(t *testing.T) {
	f := NewFakeController()

	devices, err := f.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("List() returned %d devices, want 2", len(devices))
	}
	if devices[0].Name != "Bedroom Fan" || devices[1].Name != "Bedroom Light" {
		t.Errorf("List() = %v", devices)
	}
}

func TestFakeController_DescribeFan(t *testing.T) {
	f := NewFakeController()

	dev, err := f.Describe(context.Background(), 2)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}

	if dev.Status != "ONLINE" {
		t.Errorf("Status = %q, want ONLINE", dev.Status)
	}
	if len(dev.Attributes) != 4 {
		t.Fatalf("got %d attributes, want 4", len(dev.Attributes))
	}

	want := DeviceMeta{Manufacturer: "GE (Jasco Products)", Product: "Fan Control Switch"}
	if got := dev.Meta(); got != want {
		t.Errorf("Meta() = %+v, want %+v", got, want)
	}

	level := dev.Attribute("Level")
	if level == nil || level.Current != Uint8Value(0) {
		t.Errorf("Level = %+v, want current 0", level)
	}

	upDown := dev.Attribute("Up_Down")
	if upDown == nil || upDown.Readable || !upDown.Writable || !upDown.Current.IsNoValue() {
		t.Errorf("Up_Down = %+v, want write-only with no value", upDown)
	}
}

func TestFakeController_DescribeLight(t *testing.T) {
	f := NewFakeController()

	dev, err := f.Describe(context.Background(), 4)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}

	if dev.Status != "" {
		t.Errorf("Status = %q, want empty for the headerless device", dev.Status)
	}
	if dev.ManufacturerID != nil {
		t.Error("the light should carry no header identity")
	}
	if len(dev.Attributes) != 1 {
		t.Fatalf("got %d attributes, want 1", len(dev.Attributes))
	}

	onOff := dev.Attributes[0]
	if onOff.Description != "On_Off" || onOff.Current != BoolValue(false) || onOff.Setting != BoolValue(false) {
		t.Errorf("On_Off = %+v", onOff)
	}
}

func TestFakeController_DescribeUnknown(t *testing.T) {
	f := NewFakeController()

	_, err := f.Describe(context.Background(), 9)
	if !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("Describe() error = %v, want ErrUnknownDevice", err)
	}
}

func TestFakeController_SetShadowsLaterDescribes(t *testing.T) {
	f := NewFakeController()
	ctx := context.Background()

	if err := f.Set(ctx, 2, 3, Uint8Value(128)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	dev, err := f.Describe(ctx, 2)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	level := dev.Attribute("Level")
	if level.Current != Uint8Value(128) || level.Setting != Uint8Value(128) {
		t.Errorf("Level = %v/%v, want 128 in both columns", level.Current, level.Setting)
	}

	// Other attributes keep their defaults.
	if generic := dev.Attribute("GenericValue"); generic.Current != Uint8Value(0) {
		t.Errorf("GenericValue = %v, want 0", generic.Current)
	}
}

func TestFakeController_WriteOnlyStaysEmpty(t *testing.T) {
	f := NewFakeController()
	ctx := context.Background()

	if err := f.Set(ctx, 2, 4, BoolValue(true)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	dev, err := f.Describe(ctx, 2)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	upDown := dev.Attribute("Up_Down")
	if !upDown.Current.IsNoValue() || !upDown.Setting.IsNoValue() {
		t.Errorf("Up_Down = %v/%v, want no value in both columns", upDown.Current, upDown.Setting)
	}
}

func TestFakeController_SetValidation(t *testing.T) {
	tests := []struct {
		name    string
		device  DeviceID
		attr    AttributeID
		value   Value
		wantErr error
	}{
		{name: "unknown device", device: 9, attr: 1, value: BoolValue(true), wantErr: ErrUnknownDevice},
		{name: "unknown attribute", device: 2, attr: 6, value: BoolValue(true), wantErr: ErrUnknownAttribute},
		{name: "attribute zero", device: 2, attr: 0, value: BoolValue(true), wantErr: ErrUnknownAttribute},
		{name: "no value", device: 2, attr: 3, value: NoValue(), wantErr: ErrNoValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFakeController()
			err := f.Set(context.Background(), tt.device, tt.attr, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Set() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
