package apron

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// stubRunner records invocations and plays back canned output.
type stubRunner struct {
	output []byte
	err    error
	calls  [][]string
}

func (r *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.err != nil {
		return nil, r.err
	}
	return r.output, nil
}

func TestAprontestController_List(t *testing.T) {
	runner := &stubRunner{output: []byte(listOutput)}
	c := NewAprontestController("aprontest", runner, nil)

	devices, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("List() returned %d devices, want 2", len(devices))
	}

	want := [][]string{{"aprontest", "-l"}}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
}

func TestAprontestController_Describe(t *testing.T) {
	runner := &stubRunner{output: []byte(fanDescribeOutput)}
	c := NewAprontestController("aprontest", runner, nil)

	dev, err := c.Describe(context.Background(), 2)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if dev.Name != "Bedroom Fan" || len(dev.Attributes) != 4 {
		t.Errorf("Describe() = %q with %d attributes, want Bedroom Fan with 4", dev.Name, len(dev.Attributes))
	}

	want := [][]string{{"aprontest", "-l", "-m", "2"}}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
}

func TestAprontestController_Set(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		wantArgs []string
	}{
		{
			name:     "uint",
			value:    Uint8Value(128),
			wantArgs: []string{"aprontest", "-u", "-m", "2", "-t", "3", "-v", "128"},
		},
		{
			name:     "bool",
			value:    BoolValue(true),
			wantArgs: []string{"aprontest", "-u", "-m", "2", "-t", "3", "-v", "TRUE"},
		},
		{
			name:     "string",
			value:    StringValue("ON"),
			wantArgs: []string{"aprontest", "-u", "-m", "2", "-t", "3", "-v", "ON"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{}
			c := NewAprontestController("aprontest", runner, nil)

			if err := c.Set(context.Background(), 2, 3, tt.value); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			want := [][]string{tt.wantArgs}
			if !reflect.DeepEqual(runner.calls, want) {
				t.Errorf("calls = %v, want %v", runner.calls, want)
			}
		})
	}
}

func TestAprontestController_SetNoValue(t *testing.T) {
	runner := &stubRunner{}
	c := NewAprontestController("aprontest", runner, nil)

	err := c.Set(context.Background(), 2, 3, NoValue())
	if !errors.Is(err, ErrNoValue) {
		t.Fatalf("Set() error = %v, want ErrNoValue", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("Set() ran %v, want no invocation for an absent value", runner.calls)
	}
}

func TestAprontestController_RunnerError(t *testing.T) {
	boom := errors.New("exit status 1: ERROR, failed to parse arguments")
	runner := &stubRunner{err: boom}
	c := NewAprontestController("aprontest", runner, nil)

	_, err := c.List(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("List() error = %v, want wrapped runner error", err)
	}
	if !strings.Contains(err.Error(), "aprontest") {
		t.Errorf("List() error should name the binary, got %v", err)
	}
}

func TestAprontestController_BadOutput(t *testing.T) {
	runner := &stubRunner{output: []byte{0xff, 0xfe, 0xfd}}
	c := NewAprontestController("aprontest", runner, nil)

	_, err := c.List(context.Background())
	if !errors.Is(err, ErrBadOutput) {
		t.Fatalf("List() error = %v, want ErrBadOutput", err)
	}
}
