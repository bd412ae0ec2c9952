// Package apron models the Wink Hub v1 device stack and drives it through
// the hub's aprontest command-line tool.
//
// The hub exposes every paired device (Z-Wave, ZigBee, Lutron) as a numbered
// master with a table of typed attributes. This package provides:
//
//   - The device and attribute model (Device, Attribute, Value, Type)
//   - A line-oriented parser for aprontest's human-formatted output
//   - The Controller interface with two implementations: AprontestController
//     (shells out to the real tool) and FakeController (fixed in-memory
//     catalog for development off the hub)
//
// # Attribute values
//
// Values are typed by the hub's TYPE column (BOOL, STRING, UINT8..UINT64)
// and carried as the immutable Value union, which also represents "no
// value" for write-only attributes. Decoding is always keyed by the
// declared type: the same payload text means different things to a UINT8
// and a STRING attribute.
//
// # Concurrency
//
// Controllers are safe for concurrent use. AprontestController serialises
// subprocess invocations; concurrent aprontest transactions contend for
// the hub's single radio.
package apron
