package apron

import (
	"fmt"
	"strconv"
	"strings"
)

// Literal markers in aprontest output.
const (
	listCountMarker = " devices in"
	listCountPrefix = "Found "

	gangPrefix         = "Gang ID: "
	deviceTypesPrefix  = "Generic/Specific device types: "
	manufacturerPrefix = "Manufacturer ID: "
	productTypeSep     = " Product Type: "
	productNumberSep   = " Product Number: "
	statusPrefix       = "Device is "
	rowFieldSep        = "|"
	listRowFields      = 3
	attributeRowFields = 6
)

// Column headers that delimit the tables.
var (
	listColumns      = []string{"MASTERID", "INTERCONNECT", "USERNAME"}
	attributeColumns = []string{"ATTRIBUTE", "DESCRIPTION", "TYPE", "MODE", "GET", "SET"}
)

// ParseDeviceList extracts device summaries from `aprontest -l` output.
//
// The expected shape is a "Found N devices in …" line, the MASTERID table
// header, then one row per device. The interconnect column (ZWAVE, ZIGBEE,
// LUTRON) is ignored. Rows end at the first line that is not a row; the
// master/control group tables that follow are never read.
func ParseDeviceList(output string) ([]DeviceSummary, error) {
	lines := strings.Split(output, "\n")

	count := -1
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, listCountPrefix) && strings.Contains(t, listCountMarker) {
			count = i
			break
		}
	}
	if count < 0 {
		return nil, fmt.Errorf("%w:\n%s", ErrBadListOutput, output)
	}

	header := -1
	for i := count + 1; i < len(lines); i++ {
		if isTableHeader(lines[i], listColumns) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, fmt.Errorf("%w:\n%s", ErrBadListOutput, output)
	}

	var devices []DeviceSummary
	for _, line := range lines[header+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		summary, ok := parseListRow(line)
		if !ok {
			break
		}
		devices = append(devices, summary)
	}
	return devices, nil
}

// ParseDeviceDescription extracts a full device from `aprontest -l -m <id>`
// output.
//
// The header section is a sequence of optional, ordered identity lines
// (gang id, generic/specific types, manufacturer identity, status). A line
// that merely resembles one of them without matching its exact shape sets
// nothing and is skipped with the rest of the preamble. The device name is
// the last non-blank line before the attribute table header. Attribute rows
// that declare an unknown type or carry a value that fails its declared
// type are dropped with a warning; missing the table entirely is an error.
func ParseDeviceDescription(output string, id DeviceID, log Logger) (*Device, error) {
	if log == nil {
		log = noopLogger{}
	}

	lines := strings.Split(output, "\n")
	dev := &Device{ID: id}

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}

	// Identity header lines, each optional, in the order the hub prints them.
	if i < len(lines) {
		ok, err := parseGangLine(strings.TrimSpace(lines[i]), dev)
		if err != nil {
			return nil, err
		}
		if ok {
			i++
		}
	}
	if i < len(lines) {
		ok, err := parseDeviceTypesLine(strings.TrimSpace(lines[i]), dev)
		if err != nil {
			return nil, err
		}
		if ok {
			i++
		}
	}
	if i < len(lines) {
		ok, err := parseManufacturerLine(strings.TrimSpace(lines[i]), dev)
		if err != nil {
			return nil, err
		}
		if ok {
			i++
		}
	}
	if i < len(lines) && parseStatusLine(strings.TrimSpace(lines[i]), dev) {
		i++
	}

	// Everything up to the attribute table header is preamble; the name is
	// its last non-blank line.
	header := -1
	for j := i; j < len(lines); j++ {
		if isTableHeader(lines[j], attributeColumns) {
			header = j
			break
		}
	}
	if header < 0 {
		return nil, fmt.Errorf("%w:\n%s", ErrBadDescribeOutput, output)
	}

	name := ""
	for j := header - 1; j >= i; j-- {
		if t := strings.TrimSpace(lines[j]); t != "" {
			name = t
			break
		}
	}
	if name == "" {
		return nil, fmt.Errorf("%w: missing device name:\n%s", ErrBadDescribeOutput, output)
	}
	dev.Name = name

	for _, line := range lines[header+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		row, ok := splitAttributeRow(line)
		if !ok {
			break
		}
		attr, err := buildAttribute(row)
		if err != nil {
			log.Warn("skipping malformed attribute row",
				"device", id, "attribute", row.id, "error", err)
			continue
		}
		dev.Attributes = append(dev.Attributes, attr)
	}

	return dev, nil
}

// ─── Header line parsers ────────────────────────────────────────────────────

// parseGangLine handles "Gang ID: 0x00000003". A matched line with an
// unparsable number fails the whole describe.
func parseGangLine(line string, dev *Device) (bool, error) {
	tok, ok := cutHeaderToken(line, gangPrefix)
	if !ok {
		return false, nil
	}
	n, err := ParseNumber(tok, 32)
	if err != nil {
		return false, err
	}
	gang := uint32(n)
	dev.GangID = &gang
	return true, nil
}

// parseDeviceTypesLine handles "Generic/Specific device types: 0x11/0x08".
func parseDeviceTypesLine(line string, dev *Device) (bool, error) {
	rest, ok := strings.CutPrefix(line, deviceTypesPrefix)
	if !ok {
		return false, nil
	}
	genTok, specTok, found := strings.Cut(rest, "/")
	if !found || !isToken(genTok) || !isToken(specTok) {
		return false, nil
	}
	gen, err := ParseNumber(genTok, 8)
	if err != nil {
		return false, err
	}
	spec, err := ParseNumber(specTok, 8)
	if err != nil {
		return false, err
	}
	generic, specific := uint8(gen), uint8(spec)
	dev.GenericType = &generic
	dev.SpecificType = &specific
	return true, nil
}

// parseManufacturerLine handles the single-line form
// "Manufacturer ID: 0x0063 Product Type: 0x4944 Product Number: 0x3131".
// Firmware that prints a different arrangement (commas, missing fields)
// does not match, leaving the identity unset.
func parseManufacturerLine(line string, dev *Device) (bool, error) {
	rest, ok := strings.CutPrefix(line, manufacturerPrefix)
	if !ok {
		return false, nil
	}
	mTok, rest, found := strings.Cut(rest, productTypeSep)
	if !found {
		return false, nil
	}
	ptTok, pnTok, found := strings.Cut(rest, productNumberSep)
	if !found || !isToken(mTok) || !isToken(ptTok) || !isToken(pnTok) {
		return false, nil
	}
	m, err := ParseNumber(mTok, 16)
	if err != nil {
		return false, err
	}
	pt, err := ParseNumber(ptTok, 16)
	if err != nil {
		return false, err
	}
	pn, err := ParseNumber(pnTok, 16)
	if err != nil {
		return false, err
	}
	manufacturer, productType, productNumber := uint16(m), uint16(pt), uint16(pn)
	dev.ManufacturerID = &manufacturer
	dev.ProductType = &productType
	dev.ProductNumber = &productNumber
	return true, nil
}

// parseStatusLine handles "Device is ONLINE, 0 failed tx attempts, …",
// keeping the word before the first comma.
func parseStatusLine(line string, dev *Device) bool {
	rest, ok := strings.CutPrefix(line, statusPrefix)
	if !ok {
		return false
	}
	status, _, found := strings.Cut(rest, ",")
	if !found {
		return false
	}
	dev.Status = strings.TrimSpace(status)
	return true
}

// ─── Row parsers ────────────────────────────────────────────────────────────

// parseListRow parses "id | interconnect | name". A line that does not
// have the row shape ends the table.
func parseListRow(line string) (DeviceSummary, bool) {
	parts := strings.Split(line, rowFieldSep)
	if len(parts) != listRowFields {
		return DeviceSummary{}, false
	}
	id, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return DeviceSummary{}, false
	}
	return DeviceSummary{
		ID:   DeviceID(id),
		Name: strings.TrimSpace(parts[2]),
	}, true
}

// attributeRow is the raw field split of one attribute table row.
type attributeRow struct {
	id          AttributeID
	description string
	typeToken   string
	mode        string
	get         string
	set         string
}

// splitAttributeRow performs the structural split of an attribute row.
// Failure here means the table has ended, not that a row is malformed.
func splitAttributeRow(line string) (attributeRow, bool) {
	parts := strings.Split(line, rowFieldSep)
	if len(parts) != attributeRowFields {
		return attributeRow{}, false
	}
	id, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return attributeRow{}, false
	}
	return attributeRow{
		id:          AttributeID(id),
		description: strings.TrimSpace(parts[1]),
		typeToken:   strings.TrimSpace(parts[2]),
		mode:        strings.TrimSpace(parts[3]),
		get:         strings.TrimSpace(parts[4]),
		set:         strings.TrimSpace(parts[5]),
	}, true
}

// buildAttribute decodes a structurally valid row. Errors here drop the
// row only.
func buildAttribute(row attributeRow) (Attribute, error) {
	typ, err := ParseType(row.typeToken)
	if err != nil {
		return Attribute{}, err
	}
	current, err := ParseTableValue(typ, row.get)
	if err != nil {
		return Attribute{}, fmt.Errorf("GET column: %w", err)
	}
	setting, err := ParseTableValue(typ, row.set)
	if err != nil {
		return Attribute{}, fmt.Errorf("SET column: %w", err)
	}
	return Attribute{
		ID:          row.id,
		Description: row.description,
		Type:        typ,
		Readable:    strings.Contains(row.mode, "R"),
		Writable:    strings.Contains(row.mode, "W"),
		Current:     current,
		Setting:     setting,
	}, nil
}

// ─── Shared helpers ─────────────────────────────────────────────────────────

// isTableHeader reports whether a line is a pipe-separated header with
// exactly the given column names.
func isTableHeader(line string, columns []string) bool {
	parts := strings.Split(line, rowFieldSep)
	if len(parts) != len(columns) {
		return false
	}
	for i, col := range columns {
		if strings.TrimSpace(parts[i]) != col {
			return false
		}
	}
	return true
}

// cutHeaderToken strips a header prefix and returns the single token that
// must fill the rest of the line.
func cutHeaderToken(line, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(line, prefix)
	if !ok || !isToken(rest) {
		return "", false
	}
	return rest, true
}

// isToken reports whether s is non-empty and free of spaces.
func isToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t")
}
