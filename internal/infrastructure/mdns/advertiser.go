// Package mdns advertises the bridge's diagnostic API over mDNS/DNS-SD,
// so LAN tooling can find a hub without knowing its address.
//
// One service instance is registered per bridge process:
//
//	<instance>._winkbridge._tcp.<domain>  port=<api port>  txt: version, api
//
// The advertisement is optional and config-gated; a bridge without the
// API (or with mdns disabled) never constructs an Advertiser.
package mdns

import (
	"fmt"
	"os"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// ServiceType is the DNS-SD service type browsed for by LAN tooling.
const ServiceType = "_winkbridge._tcp"

// defaultDomain is the conventional mDNS browsing domain.
const defaultDomain = "local."

// apiBasePath is advertised so browsers know where the JSON API lives.
const apiBasePath = "/api/v1"

// Logger is the minimal logging surface the advertiser needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Advertiser registers the bridge's API as a zeroconf service.
//
// Thread Safety: Start and Shutdown are safe for concurrent use; Start
// replaces any previous registration.
type Advertiser struct {
	instance string
	domain   string
	port     int
	txt      []string

	mu     sync.Mutex
	server *zeroconf.Server

	logger Logger
}

// Options configures an Advertiser.
type Options struct {
	// Instance is the service instance name. Empty derives one from the
	// hostname, so a default config still produces a distinguishable
	// entry per hub.
	Instance string

	// Domain is the browsing domain. Empty means local.
	Domain string

	// Port is the TCP port the diagnostic API listens on.
	Port int

	// Version is the bridge version placed in the TXT record.
	Version string

	// Logger is optional; nil disables logging.
	Logger Logger
}

// NewAdvertiser validates options and prepares an advertiser. No network
// activity happens until Start.
func NewAdvertiser(opts Options) (*Advertiser, error) {
	if opts.Port <= 0 {
		return nil, fmt.Errorf("mdns: port is required")
	}

	instance := opts.Instance
	if instance == "" {
		instance = defaultInstance()
	}

	domain := opts.Domain
	if domain == "" {
		domain = defaultDomain
	}

	return &Advertiser{
		instance: instance,
		domain:   domain,
		port:     opts.Port,
		txt:      txtRecords(opts.Version),
		logger:   opts.Logger,
	}, nil
}

// Start registers the service on all multicast-capable interfaces,
// replacing any earlier registration by this advertiser.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := zeroconf.Register(a.instance, ServiceType, a.domain, a.port, a.txt, nil)
	if err != nil {
		return fmt.Errorf("mdns: register %s: %w", ServiceType, err)
	}
	a.server = server

	if a.logger != nil {
		a.logger.Info("mDNS advertisement started",
			"instance", a.instance,
			"service", ServiceType,
			"port", a.port,
		)
	}
	return nil
}

// Shutdown withdraws the advertisement. Safe to call without a prior
// successful Start, and more than once.
func (a *Advertiser) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil

	if a.logger != nil {
		a.logger.Info("mDNS advertisement stopped", "instance", a.instance)
	}
}

// Instance returns the resolved service instance name.
func (a *Advertiser) Instance() string { return a.instance }

// defaultInstance derives an instance name from the hostname.
func defaultInstance() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "winkbridge"
	}
	return "winkbridge-" + host
}

// txtRecords builds the TXT payload advertised with the service.
func txtRecords(version string) []string {
	if version == "" {
		version = "dev"
	}
	return []string{
		"version=" + version,
		"api=" + apiBasePath,
	}
}
