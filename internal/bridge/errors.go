package bridge

import "errors"

// Domain errors for the bridge package.
var (
	// ErrUninterestingTopic is returned by Topics.Parse for topics outside
	// every configured prefix. It is a routing signal, not a failure;
	// handlers drop these messages silently.
	ErrUninterestingTopic = errors.New("bridge: not an interesting topic")

	// ErrBadTopic is returned for topics under a configured prefix that do
	// not match any known shape. Unlike ErrUninterestingTopic these are
	// logged: something is publishing garbage into our namespace.
	ErrBadTopic = errors.New("bridge: malformed topic")

	// ErrBadPayload is returned when a command payload cannot be decoded.
	ErrBadPayload = errors.New("bridge: malformed payload")

	// ErrNoArchetype is returned when a device fits none of the discovery
	// archetypes (no Level and no On_Off attribute).
	ErrNoArchetype = errors.New("bridge: device fits no discovery archetype")
)
