package apron

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumber parses the hub's numeric literals: a "0x" prefix (case
// sensitive) selects base-16 with leading zeros stripped, anything else is
// decimal. The result must fit bitSize bits.
//
// Stripping leading zeros means "0x0" reduces to the empty string and
// fails; the hub never prints a bare zero in hex.
func ParseNumber(s string, bitSize int) (uint64, error) {
	var (
		n   uint64
		err error
	)
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		n, err = strconv.ParseUint(strings.TrimLeft(rest, "0"), 16, bitSize)
	} else {
		n, err = strconv.ParseUint(s, 10, bitSize)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrBadNumber, s, err)
	}
	return n, nil
}
