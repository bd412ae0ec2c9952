package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/wink-bridge/internal/apron"
)

const (
	// defaultResyncInterval is the full-repoll period when none is configured.
	defaultResyncInterval = time.Minute

	// defaultRepollQueueSize bounds the pending-repoll queue when none is
	// configured.
	defaultRepollQueueSize = 10

	// pollAllID is the reserved queue entry meaning "poll every device".
	pollAllID apron.DeviceID = 0
)

// Syncer keeps the hub and the MQTT broker in agreement. It handles:
//   - Receiving set commands from the broker and writing them to the hub
//   - Polling device state and publishing retained status documents
//   - Announcing devices to Home Assistant via MQTT discovery
//
// Thread Safety: All methods are safe for concurrent use.
type Syncer struct {
	controller apron.Controller
	mqtt       MQTTClient
	topics     Topics
	log        *MessageLog
	recorder   StateRecorder // Optional telemetry sink for polled state
	qos        byte
	resync     time.Duration

	// repoll carries device ids waiting for an early status refresh.
	// Producers drop rather than block when it is full.
	repoll chan apron.DeviceID

	messagesIn    atomic.Uint64
	messagesOut   atomic.Uint64
	repollDropped atomic.Uint64

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context    // Syncer-level context, cancelled on Stop()
	ctxCancel context.CancelFunc // Cancel function for ctx

	// Logger
	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool

	// Disconnect closes the connection gracefully.
	Disconnect(quiesce uint)
}

// StateRecorder receives every fresh device description the syncer polls.
// This is optional - if nil, the syncer operates without telemetry.
type StateRecorder interface {
	// RecordDeviceState stores the polled state of one device.
	RecordDeviceState(dev *apron.Device)
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SyncerOptions holds configuration for creating a syncer.
type SyncerOptions struct {
	// Controller drives the hub.
	Controller apron.Controller

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Topics is the bridge's topic scheme. The main prefix must be set.
	Topics Topics

	// MessageLog receives a diagnostic record of broker traffic.
	// A private log is created when nil.
	MessageLog *MessageLog

	// Recorder is an optional telemetry sink for polled device state.
	Recorder StateRecorder

	// Logger is optional structured logger.
	Logger Logger

	// QoS applies to every publish and subscribe.
	QoS byte

	// ResyncInterval is the period of the full-repoll timer.
	ResyncInterval time.Duration

	// RepollQueueSize bounds the pending-repoll queue.
	RepollQueueSize int
}

// NewSyncer creates a new syncer instance.
// Call Start() to begin operation.
func NewSyncer(opts SyncerOptions) (*Syncer, error) {
	if opts.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Topics.Prefix() == "" {
		return nil, fmt.Errorf("topic prefix is required")
	}

	log := opts.MessageLog
	if log == nil {
		log = NewMessageLog(0)
	}
	resync := opts.ResyncInterval
	if resync <= 0 {
		resync = defaultResyncInterval
	}
	queueSize := opts.RepollQueueSize
	if queueSize <= 0 {
		queueSize = defaultRepollQueueSize
	}

	// Create syncer-level context for command cancellation on shutdown
	ctx, ctxCancel := context.WithCancel(context.Background())

	return &Syncer{
		controller: opts.Controller,
		mqtt:       opts.MQTTClient,
		topics:     opts.Topics,
		log:        log,
		recorder:   opts.Recorder, // May be nil (optional)
		qos:        opts.QoS,
		resync:     resync,
		repoll:     make(chan apron.DeviceID, queueSize),
		done:       make(chan struct{}),
		ctx:        ctx,
		ctxCancel:  ctxCancel,
		logger:     opts.Logger,
	}, nil
}

// Start launches the poll and resync loops. When the MQTT client is
// already connected it also runs the connection routine immediately;
// otherwise that waits for HandleConnected.
func (s *Syncer) Start() {
	s.wg.Add(2)
	go s.pollLoop()
	go s.resyncLoop()

	if s.mqtt.IsConnected() {
		s.HandleConnected()
	}

	s.logInfo("syncer started",
		"prefix", s.topics.Prefix(),
		"resync_interval", s.resync,
		"discovery", s.topics.DiscoveryEnabled())
}

// Stop gracefully shuts down the syncer.
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)

		// Cancel syncer context to abort in-flight hub commands
		s.ctxCancel()

		// Wait for pending operations
		s.wg.Wait()

		s.logInfo("syncer stopped")
	})
}

// Messages exposes the diagnostic traffic log.
func (s *Syncer) Messages() *MessageLog {
	return s.log
}

// HandleConnected runs the per-connection routine: subscribe to the
// bridge's topics, queue a full sync, and re-announce every device to
// Home Assistant. Wire it to the MQTT client's connect callback so it
// runs on the first connect and after every reconnect.
func (s *Syncer) HandleConnected() {
	s.log.RecordConnected()

	for _, pattern := range s.topics.SubscribePatterns() {
		if err := s.mqtt.Subscribe(pattern, s.qos, s.handleMessage); err != nil {
			s.logError("subscribe failed", fmt.Errorf("%s: %w", pattern, err))
			continue
		}
		s.logInfo("subscribed", "topic", pattern)
	}

	s.TryRepoll(pollAllID)

	if !s.topics.DiscoveryEnabled() {
		return
	}
	select {
	case <-s.done:
		return
	default:
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.broadcastDiscovery(s.ctx); err != nil {
			s.logError("discovery broadcast failed", err)
		}
	}()
}

// HandleDisconnected records a lost broker connection. Wire it to the
// MQTT client's connection-lost callback.
func (s *Syncer) HandleDisconnected(err error) {
	s.log.RecordDisconnected()
	s.logWarn("broker connection lost", "error", err)
}

// TryRepoll queues a device for an early status refresh; id 0 refreshes
// every device. The nudge is dropped when the queue is full because the
// periodic resync covers it anyway.
func (s *Syncer) TryRepoll(id apron.DeviceID) {
	select {
	case s.repoll <- id:
	default:
		s.repollDropped.Add(1)
		s.logDebug("repoll queue full, dropping nudge", "device", id)
	}
}

// handleMessage is the subscription callback for every bridge topic.
func (s *Syncer) handleMessage(topic string, payload []byte) {
	s.messagesIn.Add(1)
	s.log.RecordIncoming(topic, payload)

	parsed, err := s.topics.Parse(topic)
	if err != nil {
		// Foreign topics are silently ignored; garbage under our own
		// prefix is worth a warning.
		if !errors.Is(err, ErrUninterestingTopic) {
			s.logWarn("ignoring malformed topic", "topic", topic, "error", err)
		}
		return
	}

	// Hub commands are slow (each one shells out to aprontest), so process
	// the message off the MQTT client's callback goroutine.
	select {
	case <-s.done:
		return
	default:
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dispatch(topic, parsed, payload)
	}()
}

func (s *Syncer) dispatch(topic string, t Topic, payload []byte) {
	switch t.Kind {
	case TopicSetDevice:
		if err := s.ApplyDeviceCommand(s.ctx, t.Device, payload); err != nil {
			s.logError("device command failed", err)
		}
	case TopicSetAttribute:
		if err := s.applyAttribute(s.ctx, t.Device, t.Attribute, payload); err != nil {
			s.logError("attribute command failed", err)
		}
	case TopicDiscoveryListen:
		s.logInfo("discovery listener woke, re-announcing devices")
		if err := s.broadcastDiscovery(s.ctx); err != nil {
			s.logError("discovery broadcast failed", err)
		}
	default:
		// Status and discovery config topics are publish-only; a message
		// arriving on one means something else is writing to our namespace.
		s.logWarn("unexpected message on publish-only topic", "topic", topic)
	}
}

// applyAttribute writes a single attribute from a plain-text payload.
func (s *Syncer) applyAttribute(ctx context.Context, id apron.DeviceID, attrID apron.AttributeID, payload []byte) error {
	attr, err := s.writableAttribute(ctx, id, attrID)
	if err != nil {
		return err
	}

	value, err := apron.ParseText(attr.Type, string(payload))
	if err != nil {
		return fmt.Errorf("attribute %d (%s) of device %d: %w", attr.ID, attr.Description, id, err)
	}

	return s.setAndRepoll(ctx, id, attr, value)
}

// ApplyAttributeCommand writes a single attribute from a JSON-encoded
// value, decoded against the attribute's declared type. The diagnostic
// API writes through here; MQTT payloads are plain text and arrive via
// the topic handlers instead.
func (s *Syncer) ApplyAttributeCommand(ctx context.Context, id apron.DeviceID, attrID apron.AttributeID, raw json.RawMessage) error {
	attr, err := s.writableAttribute(ctx, id, attrID)
	if err != nil {
		return err
	}

	value, err := apron.ParseJSON(attr.Type, raw)
	if err != nil {
		return fmt.Errorf("%w: attribute %d (%s) of device %d: %v", ErrBadPayload, attr.ID, attr.Description, id, err)
	}

	return s.setAndRepoll(ctx, id, attr, value)
}

// writableAttribute resolves an attribute by id and rejects writes the
// hub would not accept.
func (s *Syncer) writableAttribute(ctx context.Context, id apron.DeviceID, attrID apron.AttributeID) (*apron.Attribute, error) {
	dev, err := s.controller.Describe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("describe device %d: %w", id, err)
	}

	attr := dev.AttributeByID(attrID)
	if attr == nil {
		return nil, fmt.Errorf("%w: device %d has no attribute %d", apron.ErrUnknownAttribute, id, attrID)
	}
	if !attr.Writable {
		return nil, fmt.Errorf("%w: attribute %d (%s) of device %d", apron.ErrNotWritable, attr.ID, attr.Description, id)
	}
	return attr, nil
}

func (s *Syncer) setAndRepoll(ctx context.Context, id apron.DeviceID, attr *apron.Attribute, value apron.Value) error {
	if err := s.controller.Set(ctx, id, attr.ID, value); err != nil {
		return fmt.Errorf("set attribute %d of device %d: %w", attr.ID, id, err)
	}

	s.logInfo("attribute written",
		"device", id,
		"attribute", attr.Description,
		"value", value.Text())

	s.TryRepoll(id)
	return nil
}

// ApplyDeviceCommand writes several attributes from one JSON object
// keyed by attribute description. Unknown, read-only and undecodable
// entries are logged and skipped; a hub write failure aborts the rest
// of the batch. The {prefix}{id}/set topic and the diagnostic API's
// device PUT both land here.
func (s *Syncer) ApplyDeviceCommand(ctx context.Context, id apron.DeviceID, payload []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return fmt.Errorf("%w: device command for %d is not a JSON object: %v", ErrBadPayload, id, err)
	}

	dev, err := s.controller.Describe(ctx, id)
	if err != nil {
		return fmt.Errorf("describe device %d: %w", id, err)
	}

	// Deterministic write order, so a mid-batch failure is reproducible.
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		attr := dev.Attribute(key)
		if attr == nil {
			s.logError("skipping unknown attribute in device command",
				fmt.Errorf("device %d has no attribute %q", id, key))
			continue
		}
		if !attr.Writable {
			s.logError("skipping read-only attribute in device command",
				fmt.Errorf("attribute %q of device %d is read-only", key, id))
			continue
		}
		value, err := apron.ParseJSON(attr.Type, fields[key])
		if err != nil {
			s.logError("skipping undecodable attribute in device command",
				fmt.Errorf("attribute %q of device %d: %w", key, id, err))
			continue
		}

		if err := s.controller.Set(ctx, id, attr.ID, value); err != nil {
			return fmt.Errorf("set attribute %q of device %d: %w", key, id, err)
		}
		s.logInfo("attribute written",
			"device", id,
			"attribute", attr.Description,
			"value", value.Text())
	}

	s.TryRepoll(id)
	return nil
}

// pollDevice publishes a device's current state as a retained JSON
// document on its status topic.
func (s *Syncer) pollDevice(ctx context.Context, id apron.DeviceID) error {
	dev, err := s.controller.Describe(ctx, id)
	if err != nil {
		return fmt.Errorf("describe device %d: %w", id, err)
	}

	payload, err := statusDocument(dev)
	if err != nil {
		return fmt.Errorf("encode status for device %d: %w", id, err)
	}

	topic := s.topics.Status(dev.ID)
	if err := s.publish(topic, payload, true); err != nil {
		return fmt.Errorf("publish status for device %d: %w", id, err)
	}
	s.logDebug("published device status", "device", dev.ID, "topic", topic)

	if s.recorder != nil {
		s.recorder.RecordDeviceState(dev)
	}
	return nil
}

// statusDocument renders a device as {description: value, ...}. Pending
// setting values win over reported ones so a just-issued command is
// reflected immediately; attributes with no value at all render as null.
func statusDocument(dev *apron.Device) ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(dev.Attributes))
	for _, attr := range dev.Attributes {
		fields[attr.Description] = json.RawMessage(attr.Setting.Or(attr.Current).JSONText())
	}
	return json.Marshal(fields)
}

// pollAll refreshes every paired device, isolating per-device failures.
func (s *Syncer) pollAll(ctx context.Context) error {
	devices, err := s.controller.List(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}

	for _, dev := range devices {
		if err := s.pollDevice(ctx, dev.ID); err != nil {
			s.logError("device poll failed", err)
		}
	}
	return nil
}

// broadcastDiscovery re-announces every paired device to Home Assistant.
// Per-device failures are logged and skipped so one misbehaving device
// cannot hide the rest.
func (s *Syncer) broadcastDiscovery(ctx context.Context) error {
	if !s.topics.DiscoveryEnabled() {
		return nil
	}

	devices, err := s.controller.List(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}

	for _, summary := range devices {
		dev, err := s.controller.Describe(ctx, summary.ID)
		if err != nil {
			s.logError("discovery describe failed", fmt.Errorf("device %d: %w", summary.ID, err))
			continue
		}

		msg, err := DeviceDiscovery(s.topics, dev)
		if err != nil {
			if errors.Is(err, ErrNoArchetype) {
				s.logDebug("device has no discovery archetype", "device", dev.ID, "name", dev.Name)
			} else {
				s.logError("discovery payload failed", err)
			}
			continue
		}

		topic, ok := s.topics.Format(Topic{Kind: TopicDiscoveryConfig, Device: dev.ID, Component: msg.Component})
		if !ok {
			continue
		}
		if err := s.publish(topic, msg.Payload, true); err != nil {
			s.logError("discovery publish failed", fmt.Errorf("device %d: %w", dev.ID, err))
			continue
		}
		s.logInfo("announced device",
			"device", dev.ID,
			"name", dev.Name,
			"component", msg.Component)
	}
	return nil
}

// publish sends one message and records it in the traffic log.
func (s *Syncer) publish(topic string, payload []byte, retained bool) error {
	if err := s.mqtt.Publish(topic, payload, s.qos, retained); err != nil {
		return err
	}
	s.messagesOut.Add(1)
	s.log.RecordOutgoing(topic, payload)
	return nil
}

// pollLoop drains the repoll queue.
func (s *Syncer) pollLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case id := <-s.repoll:
			if id == pollAllID {
				if err := s.pollAll(s.ctx); err != nil {
					s.logError("full resync failed", err)
				}
			} else if err := s.pollDevice(s.ctx, id); err != nil {
				s.logError("device poll failed", err)
			}
		}
	}
}

// resyncLoop queues a full repoll on every tick.
func (s *Syncer) resyncLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.resync)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.TryRepoll(pollAllID)
		}
	}
}

// SyncerMetrics contains metrics data for the API metrics endpoint.
type SyncerMetrics struct {
	Connected        bool   `json:"connected"`
	MessagesIn       uint64 `json:"messages_in"`
	MessagesOut      uint64 `json:"messages_out"`
	RepollQueueDepth int    `json:"repoll_queue_depth"`
	RepollDropped    uint64 `json:"repoll_dropped"`
}

// GetMetrics returns current syncer metrics for the API metrics endpoint.
func (s *Syncer) GetMetrics() SyncerMetrics {
	return SyncerMetrics{
		Connected:        s.mqtt.IsConnected(),
		MessagesIn:       s.messagesIn.Load(),
		MessagesOut:      s.messagesOut.Load(),
		RepollQueueDepth: len(s.repoll),
		RepollDropped:    s.repollDropped.Load(),
	}
}

// SetLogger replaces the syncer's logger at runtime.
func (s *Syncer) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

// logInfo logs an info message if logger is set.
func (s *Syncer) logInfo(msg string, keysAndValues ...any) {
	s.loggerMu.RLock()
	logger := s.logger
	s.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning message if logger is set.
func (s *Syncer) logWarn(msg string, keysAndValues ...any) {
	s.loggerMu.RLock()
	logger := s.logger
	s.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (s *Syncer) logError(msg string, err error) {
	s.loggerMu.RLock()
	logger := s.logger
	s.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}

// logDebug logs a debug message if logger is set.
func (s *Syncer) logDebug(msg string, keysAndValues ...any) {
	s.loggerMu.RLock()
	logger := s.logger
	s.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}
