package apron

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"unicode/utf8"
)

// Logger is the minimal logging surface this package needs. It is
// satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards everything; used when no logger is injected.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// CommandRunner executes one subprocess and returns its stdout. Implemented
// by process.Runner; tests substitute stubs.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Controller is the device-facing surface of the bridge: enumerate
// devices, describe one, write one attribute. Both the MQTT engine and
// the HTTP API speak to the hub exclusively through it.
//
// Implementations must be safe for concurrent use.
type Controller interface {
	// List enumerates the paired devices.
	List(ctx context.Context) ([]DeviceSummary, error)

	// Describe returns the full current description of one device.
	Describe(ctx context.Context, id DeviceID) (*Device, error)

	// Set writes one attribute value. The value must be concrete;
	// NoValue is rejected before anything reaches the device.
	Set(ctx context.Context, id DeviceID, attribute AttributeID, value Value) error
}

// AprontestController drives the hub through its aprontest tool:
//
//	aprontest -l                          list devices
//	aprontest -l -m <id>                  describe a device
//	aprontest -u -m <id> -t <attr> -v <v> update an attribute
//
// Invocations are serialised; the hub has one radio and interleaved
// transactions confuse it.
type AprontestController struct {
	binary string
	runner CommandRunner
	logger Logger

	mu sync.Mutex
}

// NewAprontestController returns a controller shelling out to the given
// binary via runner. A nil logger disables logging.
func NewAprontestController(binary string, runner CommandRunner, logger Logger) *AprontestController {
	if logger == nil {
		logger = noopLogger{}
	}
	return &AprontestController{
		binary: binary,
		runner: runner,
		logger: logger,
	}
}

// List implements Controller.
func (c *AprontestController) List(ctx context.Context) ([]DeviceSummary, error) {
	out, err := c.run(ctx, "-l")
	if err != nil {
		return nil, err
	}
	return ParseDeviceList(out)
}

// Describe implements Controller.
func (c *AprontestController) Describe(ctx context.Context, id DeviceID) (*Device, error) {
	out, err := c.run(ctx, "-l", "-m", formatID(uint64(id)))
	if err != nil {
		return nil, err
	}
	return ParseDeviceDescription(out, id, c.logger)
}

// Set implements Controller.
func (c *AprontestController) Set(ctx context.Context, id DeviceID, attribute AttributeID, value Value) error {
	arg, err := value.CommandArg()
	if err != nil {
		return err
	}
	c.logger.Debug("updating attribute",
		"device", id, "attribute", attribute, "value", arg)
	_, err = c.run(ctx, "-u", "-m", formatID(uint64(id)), "-t", formatID(uint64(attribute)), "-v", arg)
	return err
}

// run executes aprontest with the given arguments and returns its stdout.
func (c *AprontestController) run(ctx context.Context, args ...string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out, err := c.runner.Run(ctx, c.binary, args...)
	if err != nil {
		return "", fmt.Errorf("running %s: %w", c.binary, err)
	}
	if !utf8.Valid(out) {
		return "", fmt.Errorf("%w: %s", ErrBadOutput, c.binary)
	}
	return string(out), nil
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
