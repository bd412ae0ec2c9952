package apron

import "errors"

// Domain-specific errors for hub operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownType is returned when an attribute table declares a TYPE
	// token this package does not know.
	ErrUnknownType = errors.New("apron: unknown attribute type")

	// ErrInvalidValue is returned when a payload or table field cannot be
	// decoded as the attribute's declared type.
	ErrInvalidValue = errors.New("apron: invalid attribute value")

	// ErrNoValue is returned when an operation requires a concrete value
	// but the attribute has none.
	ErrNoValue = errors.New("apron: attribute has no value")

	// ErrBadNumber is returned when a numeric literal cannot be parsed or
	// does not fit its target width.
	ErrBadNumber = errors.New("apron: malformed number")

	// ErrBadListOutput is returned when aprontest list output does not
	// contain a recognisable device table.
	ErrBadListOutput = errors.New("apron: device list output doesn't match expected format")

	// ErrBadDescribeOutput is returned when aprontest describe output does
	// not contain a recognisable attribute table.
	ErrBadDescribeOutput = errors.New("apron: device description doesn't match expected format")

	// ErrBadOutput is returned when command output is not valid UTF-8.
	ErrBadOutput = errors.New("apron: command output is not valid UTF-8")

	// ErrUnknownDevice is returned for operations addressing a device the
	// controller does not know.
	ErrUnknownDevice = errors.New("apron: unknown device")

	// ErrUnknownAttribute is returned for operations addressing an
	// attribute the device does not have.
	ErrUnknownAttribute = errors.New("apron: unknown attribute")

	// ErrNotWritable is returned when a write addresses a read-only attribute.
	ErrNotWritable = errors.New("apron: attribute is not writable")
)
