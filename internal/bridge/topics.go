package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/wink-bridge/internal/apron"
)

// TopicKind discriminates the topic shapes the bridge speaks.
type TopicKind int

const (
	// TopicSetDevice carries a JSON object of attribute settings:
	// {prefix}{device}/set.
	TopicSetDevice TopicKind = iota

	// TopicSetAttribute carries one raw value for one attribute:
	// {prefix}{device}/{attribute}/set. The attribute segment is the
	// numeric attribute id, matching the command topics the bridge
	// advertises in discovery documents.
	TopicSetAttribute

	// TopicStatus is the retained per-device state document:
	// {prefix}{device}/status.
	TopicStatus

	// TopicDiscoveryConfig is a Home Assistant discovery document:
	// {discoveryPrefix}{component}/wink_{device}/config.
	TopicDiscoveryConfig

	// TopicDiscoveryListen is Home Assistant's birth topic. A message
	// there means Home Assistant restarted and wants discovery again.
	TopicDiscoveryListen
)

// Topic is one parsed or formattable topic address.
type Topic struct {
	Kind      TopicKind
	Device    apron.DeviceID
	Attribute apron.AttributeID
	Component string
}

// Topics formats and parses every MQTT topic the bridge touches. The
// zero value disables all families; construct with NewTopics.
//
// Formatting and parsing are inverses: any Topic that Format accepts
// parses back to an equal Topic, and no formatted topic contains "//".
type Topics struct {
	prefix          string
	discoveryPrefix string
	listen          string
}

// NewTopics builds a scheme from the configured prefixes. Non-empty
// prefixes are normalised to end with exactly one "/". An empty prefix
// disables its topic family: no formatting, no parse matches.
func NewTopics(prefix, discoveryPrefix, listen string) Topics {
	return Topics{
		prefix:          normalizePrefix(prefix),
		discoveryPrefix: normalizePrefix(discoveryPrefix),
		listen:          listen,
	}
}

func normalizePrefix(p string) string {
	if p == "" {
		return ""
	}
	return strings.TrimRight(p, "/") + "/"
}

// Prefix returns the normalised command/status prefix.
func (t Topics) Prefix() string { return t.prefix }

// DiscoveryEnabled reports whether a discovery prefix is configured.
func (t Topics) DiscoveryEnabled() bool { return t.discoveryPrefix != "" }

// Format renders a Topic to its topic string. The second return is false
// when the topic's family is not configured.
func (t Topics) Format(topic Topic) (string, bool) {
	switch topic.Kind {
	case TopicSetDevice:
		if t.prefix == "" {
			return "", false
		}
		return fmt.Sprintf("%s%d/set", t.prefix, topic.Device), true
	case TopicSetAttribute:
		if t.prefix == "" {
			return "", false
		}
		return fmt.Sprintf("%s%d/%d/set", t.prefix, topic.Device, topic.Attribute), true
	case TopicStatus:
		if t.prefix == "" {
			return "", false
		}
		return fmt.Sprintf("%s%d/status", t.prefix, topic.Device), true
	case TopicDiscoveryConfig:
		if t.discoveryPrefix == "" {
			return "", false
		}
		return fmt.Sprintf("%s%s/wink_%d/config", t.discoveryPrefix, topic.Component, topic.Device), true
	case TopicDiscoveryListen:
		if t.listen == "" {
			return "", false
		}
		return t.listen, true
	default:
		return "", false
	}
}

// Status returns the status topic for a device, or "" when the prefix
// family is disabled.
func (t Topics) Status(id apron.DeviceID) string {
	s, _ := t.Format(Topic{Kind: TopicStatus, Device: id})
	return s
}

// SetAttribute returns the single-attribute command topic for a device,
// or "" when the prefix family is disabled.
func (t Topics) SetAttribute(id apron.DeviceID, attribute apron.AttributeID) string {
	s, _ := t.Format(Topic{Kind: TopicSetAttribute, Device: id, Attribute: attribute})
	return s
}

// SubscribePatterns returns the patterns the bridge subscribes to: the
// two command shapes under the prefix plus the discovery listen topic.
// Status and discovery config topics are publish-only.
func (t Topics) SubscribePatterns() []string {
	var patterns []string
	if t.prefix != "" {
		patterns = append(patterns, t.prefix+"+/set", t.prefix+"+/+/set")
	}
	if t.listen != "" {
		patterns = append(patterns, t.listen)
	}
	return patterns
}

// Parse classifies an incoming topic.
//
// Topics outside every configured prefix return ErrUninterestingTopic;
// shared brokers deliver plenty of traffic that is simply not ours.
// Topics under a configured prefix that do not match a known shape
// return ErrBadTopic. The listen topic wins over prefix matches, and
// the discovery prefix wins over the command prefix.
func (t Topics) Parse(topic string) (Topic, error) {
	if t.listen != "" && topic == t.listen {
		return Topic{Kind: TopicDiscoveryListen}, nil
	}

	if t.discoveryPrefix != "" && strings.HasPrefix(topic, t.discoveryPrefix) {
		return t.parseDiscovery(topic)
	}

	if t.prefix != "" && strings.HasPrefix(topic, t.prefix) {
		return t.parseCommand(topic)
	}

	return Topic{}, ErrUninterestingTopic
}

func (t Topics) parseDiscovery(topic string) (Topic, error) {
	rest := strings.TrimPrefix(topic, t.discoveryPrefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[2] != "config" {
		return Topic{}, fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}
	idPart, ok := strings.CutPrefix(parts[1], "wink_")
	if !ok {
		return Topic{}, fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}
	id, err := strconv.ParseUint(idPart, 10, 32)
	if err != nil {
		return Topic{}, fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}
	return Topic{
		Kind:      TopicDiscoveryConfig,
		Component: parts[0],
		Device:    apron.DeviceID(id),
	}, nil
}

func (t Topics) parseCommand(topic string) (Topic, error) {
	rest := strings.TrimPrefix(topic, t.prefix)
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 2 && parts[1] == "set":
		id, err := parseDeviceSegment(parts[0], topic)
		if err != nil {
			return Topic{}, err
		}
		return Topic{Kind: TopicSetDevice, Device: id}, nil

	case len(parts) == 3 && parts[2] == "set":
		id, err := parseDeviceSegment(parts[0], topic)
		if err != nil {
			return Topic{}, err
		}
		attr, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return Topic{}, fmt.Errorf("%w: %q: bad attribute id", ErrBadTopic, topic)
		}
		return Topic{
			Kind:      TopicSetAttribute,
			Device:    id,
			Attribute: apron.AttributeID(attr),
		}, nil

	case len(parts) == 2 && parts[1] == "status":
		id, err := parseDeviceSegment(parts[0], topic)
		if err != nil {
			return Topic{}, err
		}
		return Topic{Kind: TopicStatus, Device: id}, nil

	default:
		return Topic{}, fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}
}

func parseDeviceSegment(segment, topic string) (apron.DeviceID, error) {
	id, err := strconv.ParseUint(segment, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: bad device id", ErrBadTopic, topic)
	}
	return apron.DeviceID(id), nil
}
