package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/wink-bridge/internal/infrastructure/config"
)

// testBrokerConfig returns a valid MQTT configuration for testing.
func testBrokerConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "winkbridge-test",
			TLS:      false,
		},
		Topics: config.TopicsConfig{
			Prefix: "home/wink/",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelayMS: 200,
			MaxDelayMS:     30000,
		},
	}
}

// =============================================================================
// Fakes
//
// The paho client is faked so these tests run without a broker. Behaviour
// that needs a real Mosquitto (reconnect backoff, LWT delivery) lives in
// integration_test.go behind the integration build tag.
// =============================================================================

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool { return true }

func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t *fakeToken) Error() error { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type fakePublish struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// fakePaho implements pahomqtt.Client against in-memory state.
type fakePaho struct {
	mu          sync.Mutex
	connected   bool
	published   []fakePublish
	handlers    map[string]pahomqtt.MessageHandler
	unsubbed    []string
	disconnects int
	quiesce     uint

	publishErr   error
	subscribeErr error
	unsubErr     error
	timeout      bool
}

func newFakePaho() *fakePaho {
	return &fakePaho{
		connected: true,
		handlers:  make(map[string]pahomqtt.MessageHandler),
	}
}

func (f *fakePaho) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePaho) IsConnectionOpen() bool { return f.IsConnected() }

func (f *fakePaho) Connect() pahomqtt.Token {
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return &fakeToken{}
}

func (f *fakePaho) Disconnect(quiesce uint) {
	f.mu.Lock()
	f.connected = false
	f.disconnects++
	f.quiesce = quiesce
	f.mu.Unlock()
}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = p
	case string:
		data = []byte(p)
	}

	f.mu.Lock()
	f.published = append(f.published, fakePublish{
		Topic:    topic,
		QoS:      qos,
		Retained: retained,
		Payload:  data,
	})
	err := f.publishErr
	timeout := f.timeout
	f.mu.Unlock()

	return &fakeToken{err: err, timeout: timeout}
}

func (f *fakePaho) Subscribe(topic string, _ byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	err := f.subscribeErr
	timeout := f.timeout
	if err == nil && !timeout {
		f.handlers[topic] = callback
	}
	f.mu.Unlock()
	return &fakeToken{err: err, timeout: timeout}
}

func (f *fakePaho) SubscribeMultiple(filters map[string]byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	for topic := range filters {
		f.handlers[topic] = callback
	}
	f.mu.Unlock()
	return &fakeToken{}
}

func (f *fakePaho) Unsubscribe(topics ...string) pahomqtt.Token {
	f.mu.Lock()
	err := f.unsubErr
	for _, topic := range topics {
		f.unsubbed = append(f.unsubbed, topic)
		delete(f.handlers, topic)
	}
	f.mu.Unlock()
	return &fakeToken{err: err}
}

func (f *fakePaho) AddRoute(string, pahomqtt.MessageHandler) {}

func (f *fakePaho) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.ClientOptionsReader{}
}

// deliver invokes the handler registered for an exact topic, simulating an
// inbound message from the broker.
func (f *fakePaho) deliver(topic string, payload []byte) bool {
	f.mu.Lock()
	handler, ok := f.handlers[topic]
	f.mu.Unlock()
	if !ok {
		return false
	}
	handler(f, &fakeMessage{topic: topic, payload: payload})
	return true
}

func (f *fakePaho) allPublished() []fakePublish {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakePublish, len(f.published))
	copy(out, f.published)
	return out
}

func (f *fakePaho) publishedTo(topic string) []fakePublish {
	var out []fakePublish
	for _, p := range f.allPublished() {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakePaho) clearPublished() {
	f.mu.Lock()
	f.published = nil
	f.mu.Unlock()
}

func (f *fakePaho) clearHandlers() {
	f.mu.Lock()
	f.handlers = make(map[string]pahomqtt.MessageHandler)
	f.mu.Unlock()
}

func (f *fakePaho) handlerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

// testLogger records Warn and Error calls for assertions.
type testLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *testLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *testLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

// newFakeClient wires a Client around a fakePaho in the connected state.
func newFakeClient(fake *fakePaho) *Client {
	return &Client{
		client:        fake,
		cfg:           testBrokerConfig(),
		clientID:      "winkbridge-test",
		subscriptions: make(map[string]subscription),
		connected:     true,
	}
}

// =============================================================================
// Connection State Tests
// =============================================================================

func TestIsConnectedInitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestIsConnectedTracksBrokerState(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	if !client.IsConnected() {
		t.Fatal("IsConnected() = false, want true")
	}

	// The paho layer dropping the link makes IsConnected false even
	// before the connection-lost handler fires.
	fake.mu.Lock()
	fake.connected = false
	fake.mu.Unlock()

	if client.IsConnected() {
		t.Error("IsConnected() = true with broker link down, want false")
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero-value client error = %v, want nil", err)
	}
}

func TestClosePublishesGracefulOffline(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	published := fake.publishedTo("winkbridge/system/status")
	if len(published) != 1 {
		t.Fatalf("system status publishes = %d, want 1", len(published))
	}
	if !published[0].Retained {
		t.Error("offline status should be retained")
	}

	var status map[string]string
	if err := json.Unmarshal(published[0].Payload, &status); err != nil {
		t.Fatalf("offline payload is not JSON: %v", err)
	}
	if status["status"] != "offline" {
		t.Errorf("status = %q, want offline", status["status"])
	}
	if status["reason"] != "graceful_shutdown" {
		t.Errorf("reason = %q, want graceful_shutdown", status["reason"])
	}
	if status["client_id"] != "winkbridge-test" {
		t.Errorf("client_id = %q, want winkbridge-test", status["client_id"])
	}

	if fake.disconnects != 1 {
		t.Errorf("Disconnect calls = %d, want 1", fake.disconnects)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}

func TestResolveClientID(t *testing.T) {
	cfg := testBrokerConfig()
	if got := resolveClientID(cfg); got != "winkbridge-test" {
		t.Errorf("resolveClientID() = %q, want configured id", got)
	}

	cfg.Broker.ClientID = ""
	first := resolveClientID(cfg)
	second := resolveClientID(cfg)

	if !strings.HasPrefix(first, "winkbridge-") {
		t.Errorf("generated id %q should have winkbridge- prefix", first)
	}
	if len(first) != len("winkbridge-")+8 {
		t.Errorf("generated id %q has wrong length", first)
	}
	if first == second {
		t.Error("generated ids should differ between calls")
	}
}

func TestClientID(t *testing.T) {
	client := newFakeClient(newFakePaho())
	if client.ClientID() != "winkbridge-test" {
		t.Errorf("ClientID() = %q, want winkbridge-test", client.ClientID())
	}
}

// =============================================================================
// HealthCheck Tests
// =============================================================================

func TestHealthCheck(t *testing.T) {
	client := newFakeClient(newFakePaho())

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	client := newFakeClient(newFakePaho())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)
	client.Close()

	err := client.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Publish Tests
// =============================================================================

func TestPublish(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	payload := []byte(`{"Level":128}`)
	if err := client.Publish("home/wink/4/status", payload, 1, true); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	published := fake.allPublished()
	if len(published) != 1 {
		t.Fatalf("published = %d messages, want 1", len(published))
	}
	got := published[0]
	if got.Topic != "home/wink/4/status" {
		t.Errorf("topic = %q, want home/wink/4/status", got.Topic)
	}
	if got.QoS != 1 || !got.Retained {
		t.Errorf("qos/retained = %d/%v, want 1/true", got.QoS, got.Retained)
	}
	if string(got.Payload) != string(payload) {
		t.Errorf("payload = %q, want %q", got.Payload, payload)
	}
}

func TestPublishEmptyTopic(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	err := client.Publish("", []byte("test"), 1, false)
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
	if len(fake.allPublished()) != 0 {
		t.Error("invalid publish should not reach the broker")
	}
}

func TestPublishInvalidQoS(t *testing.T) {
	client := newFakeClient(newFakePaho())

	err := client.Publish("home/wink/4/status", []byte("test"), 3, false)
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
	}
}

func TestPublishOversizedPayload(t *testing.T) {
	client := newFakeClient(newFakePaho())

	huge := make([]byte, maxPayloadSize+1)
	err := client.Publish("home/wink/4/status", huge, 1, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestPublishDisconnected(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)
	client.Close()
	fake.clearPublished()

	err := client.Publish("home/wink/4/status", []byte("test"), 1, false)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if len(fake.allPublished()) != 0 {
		t.Error("publish on disconnected client should not reach the broker")
	}
}

func TestPublishBrokerError(t *testing.T) {
	fake := newFakePaho()
	fake.publishErr = errors.New("broker rejected")
	client := newFakeClient(fake)

	err := client.Publish("home/wink/4/status", []byte("test"), 1, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestPublishTimeout(t *testing.T) {
	fake := newFakePaho()
	fake.timeout = true
	client := newFakeClient(fake)

	err := client.Publish("home/wink/4/status", []byte("test"), 1, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("Publish() error %q should mention the timeout", err)
	}
}

func TestPublishNilPayload(t *testing.T) {
	client := newFakeClient(newFakePaho())

	if err := client.Publish("home/wink/4/status", nil, 1, false); err != nil {
		t.Errorf("Publish() with nil payload error = %v", err)
	}
}

// =============================================================================
// Subscribe Tests
// =============================================================================

func TestSubscribe(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	topic := "home/wink/+/set"
	err := client.Subscribe(topic, 1, func(string, []byte) error { return nil })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if !client.HasSubscription(topic) {
		t.Error("HasSubscription() = false, want true")
	}
	if client.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", client.SubscriptionCount())
	}
	if fake.handlerCount() != 1 {
		t.Errorf("broker-side handlers = %d, want 1", fake.handlerCount())
	}
}

func TestSubscribeEmptyTopic(t *testing.T) {
	client := newFakeClient(newFakePaho())

	err := client.Subscribe("", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscribeInvalidQoS(t *testing.T) {
	client := newFakeClient(newFakePaho())

	err := client.Subscribe("home/wink/+/set", 3, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	client := newFakeClient(newFakePaho())

	err := client.Subscribe("home/wink/+/set", 1, nil)
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
}

func TestSubscribeDisconnected(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)
	client.Close()

	err := client.Subscribe("home/wink/+/set", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeBrokerFailureUntracks(t *testing.T) {
	fake := newFakePaho()
	fake.subscribeErr = errors.New("broker rejected")
	client := newFakeClient(fake)

	topic := "home/wink/+/set"
	err := client.Subscribe(topic, 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Fatalf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}

	// A failed subscribe must not linger in the restore set.
	if client.HasSubscription(topic) {
		t.Error("HasSubscription() = true after failed subscribe, want false")
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

func TestMultipleSubscriptions(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	topics := []string{
		"home/wink/+/set",
		"home/wink/+/+/set",
		"homeassistant/status",
	}

	for _, topic := range topics {
		if err := client.Subscribe(topic, 1, func(string, []byte) error { return nil }); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", topic, err)
		}
	}

	if client.SubscriptionCount() != 3 {
		t.Errorf("SubscriptionCount() = %d, want 3", client.SubscriptionCount())
	}
	for _, topic := range topics {
		if !client.HasSubscription(topic) {
			t.Errorf("HasSubscription(%s) = false, want true", topic)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	topic := "home/wink/+/set"
	if err := client.Subscribe(topic, 1, func(string, []byte) error { return nil }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := client.Unsubscribe(topic); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}

	if client.HasSubscription(topic) {
		t.Error("HasSubscription() = true after Unsubscribe(), want false")
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
	if len(fake.unsubbed) != 1 || fake.unsubbed[0] != topic {
		t.Errorf("broker unsubscribes = %v, want [%s]", fake.unsubbed, topic)
	}
}

func TestUnsubscribeEmptyTopic(t *testing.T) {
	client := newFakeClient(newFakePaho())

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestUnsubscribeDisconnected(t *testing.T) {
	client := newFakeClient(newFakePaho())
	client.Close()

	err := client.Unsubscribe("home/wink/+/set")
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestHasSubscriptionNotSubscribed(t *testing.T) {
	client := newFakeClient(newFakePaho())

	if client.HasSubscription("nonexistent/topic") {
		t.Error("HasSubscription() should be false for unsubscribed topic")
	}
}

// =============================================================================
// Message Delivery Tests
// =============================================================================

func TestMessageDelivery(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	received := make(chan string, 1)
	err := client.Subscribe("home/wink/4/set", 1, func(_ string, payload []byte) error {
		received <- string(payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if !fake.deliver("home/wink/4/set", []byte(`{"Level":128}`)) {
		t.Fatal("no handler registered for topic")
	}

	select {
	case payload := <-received:
		if payload != `{"Level":128}` {
			t.Errorf("payload = %q, want Level document", payload)
		}
	default:
		t.Error("handler was not called")
	}
}

func TestHandlerErrorIsLogged(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)
	logger := &testLogger{}
	client.SetLogger(logger)

	err := client.Subscribe("home/wink/4/set", 1, func(string, []byte) error {
		return errors.New("handler error")
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	fake.deliver("home/wink/4/set", []byte("128"))

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warns) != 1 {
		t.Errorf("warn logs = %d, want 1", len(logger.warns))
	}
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)
	logger := &testLogger{}
	client.SetLogger(logger)

	err := client.Subscribe("home/wink/4/set", 1, func(string, []byte) error {
		panic("boom")
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	// Must not propagate the panic.
	fake.deliver("home/wink/4/set", []byte("128"))

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.errors) != 1 {
		t.Errorf("error logs = %d, want 1", len(logger.errors))
	}
}

func TestHandlerFailureWithoutLogger(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	err := client.Subscribe("home/wink/4/set", 1, func(string, []byte) error {
		panic("boom")
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	// No logger set; delivery must still survive the panic.
	fake.deliver("home/wink/4/set", []byte("128"))
}

// =============================================================================
// Reconnect Behaviour Tests
// =============================================================================

func TestHandleConnectRestoresSubscriptions(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	topics := []string{"home/wink/+/set", "home/wink/+/+/set"}
	for _, topic := range topics {
		if err := client.Subscribe(topic, 1, func(string, []byte) error { return nil }); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", topic, err)
		}
	}

	// Simulate the broker dropping state across a reconnect.
	fake.clearHandlers()
	client.handleConnect()

	if fake.handlerCount() != len(topics) {
		t.Errorf("restored handlers = %d, want %d", fake.handlerCount(), len(topics))
	}
	for _, topic := range topics {
		if !fake.deliver(topic, []byte("x")) {
			t.Errorf("handler for %s was not restored", topic)
		}
	}
}

func TestHandleConnectPublishesOnlineStatus(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	client.handleConnect()

	published := fake.publishedTo("winkbridge/system/status")
	if len(published) != 1 {
		t.Fatalf("system status publishes = %d, want 1", len(published))
	}
	if !published[0].Retained {
		t.Error("online status should be retained")
	}

	var status map[string]string
	if err := json.Unmarshal(published[0].Payload, &status); err != nil {
		t.Fatalf("online payload is not JSON: %v", err)
	}
	if status["status"] != "online" {
		t.Errorf("status = %q, want online", status["status"])
	}
	if status["client_id"] != "winkbridge-test" {
		t.Errorf("client_id = %q, want winkbridge-test", status["client_id"])
	}
	if status["timestamp"] == "" {
		t.Error("timestamp missing from online payload")
	}
}

func TestOnConnectCallback(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	called := make(chan struct{}, 1)
	client.SetOnConnect(func() {
		called <- struct{}{}
	})

	client.handleConnect()

	select {
	case <-called:
	default:
		t.Error("onConnect callback was not invoked")
	}
}

func TestOnDisconnectCallback(t *testing.T) {
	fake := newFakePaho()
	client := newFakeClient(fake)

	var got error
	done := make(chan struct{}, 1)
	client.SetOnDisconnect(func(err error) {
		got = err
		done <- struct{}{}
	})

	cause := errors.New("connection reset")
	client.handleDisconnect(cause)

	select {
	case <-done:
		if !errors.Is(got, cause) {
			t.Errorf("callback error = %v, want %v", got, cause)
		}
	default:
		t.Error("onDisconnect callback was not invoked")
	}

	if client.connected {
		t.Error("connected flag should be false after disconnect")
	}
}

// =============================================================================
// Options Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testBrokerConfig()
	opts := buildClientOptions(cfg, "winkbridge-test")

	if len(opts.Servers) != 1 {
		t.Fatalf("servers = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want tcp://127.0.0.1:1883", got)
	}
	if opts.ClientID != "winkbridge-test" {
		t.Errorf("client id = %q, want winkbridge-test", opts.ClientID)
	}
	if !opts.CleanSession {
		t.Error("clean session should be enabled")
	}
	if !opts.AutoReconnect || !opts.ConnectRetry {
		t.Error("auto-reconnect and connect-retry should be enabled")
	}
	if opts.ConnectRetryInterval != 200*time.Millisecond {
		t.Errorf("connect retry interval = %v, want 200ms", opts.ConnectRetryInterval)
	}
	if opts.MaxReconnectInterval != 30*time.Second {
		t.Errorf("max reconnect interval = %v, want 30s", opts.MaxReconnectInterval)
	}
	if opts.Username != "" {
		t.Errorf("username = %q, want empty without auth config", opts.Username)
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testBrokerConfig()
	cfg.Broker.TLS = true
	opts := buildClientOptions(cfg, "winkbridge-test")

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("scheme = %q, want ssl", got)
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLS config missing")
	}
	if opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Errorf("TLS min version = %x, want %x", opts.TLSConfig.MinVersion, tlsMinVersion)
	}
}

func TestBuildClientOptionsAuth(t *testing.T) {
	cfg := testBrokerConfig()
	cfg.Auth.Username = "wink"
	cfg.Auth.Password = "secret"
	opts := buildClientOptions(cfg, "winkbridge-test")

	if opts.Username != "wink" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q, want wink/secret", opts.Username, opts.Password)
	}
}

func TestConfigureLWT(t *testing.T) {
	cfg := testBrokerConfig()
	opts := buildClientOptions(cfg, "winkbridge-test")
	configureLWT(opts, "winkbridge-test")

	if !opts.WillEnabled {
		t.Fatal("will should be enabled")
	}
	if opts.WillTopic != "winkbridge/system/status" {
		t.Errorf("will topic = %q, want winkbridge/system/status", opts.WillTopic)
	}
	if opts.WillQos != 1 || !opts.WillRetained {
		t.Errorf("will qos/retained = %d/%v, want 1/true", opts.WillQos, opts.WillRetained)
	}

	var status map[string]string
	if err := json.Unmarshal(opts.WillPayload, &status); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if status["status"] != "offline" {
		t.Errorf("will status = %q, want offline", status["status"])
	}
	if status["reason"] != "unexpected_disconnect" {
		t.Errorf("will reason = %q, want unexpected_disconnect", status["reason"])
	}
}
