package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/wink-bridge/internal/apron"
	"github.com/nerrad567/wink-bridge/internal/bridge"
	"github.com/nerrad567/wink-bridge/internal/infrastructure/config"
	"github.com/nerrad567/wink-bridge/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Engine is the slice of the sync engine the API drives: the shared
// decode-and-set write path, its counters and the broker-traffic ring.
// Satisfied by *bridge.Syncer.
type Engine interface {
	// ApplyDeviceCommand writes a JSON attribute batch to a device.
	ApplyDeviceCommand(ctx context.Context, id apron.DeviceID, payload []byte) error

	// ApplyAttributeCommand writes one attribute from a JSON value.
	ApplyAttributeCommand(ctx context.Context, id apron.DeviceID, attrID apron.AttributeID, raw json.RawMessage) error

	// GetMetrics returns the engine's counters.
	GetMetrics() bridge.SyncerMetrics

	// Messages returns the recent broker-traffic ring.
	Messages() *bridge.MessageLog
}

// ConnectionStatus reports broker connectivity for health and metrics.
// Satisfied by *mqtt.Client.
type ConnectionStatus interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Controller apron.Controller
	Engine     Engine
	MQTT       ConnectionStatus // optional; health and metrics report the broker as down when nil
	Version    string
}

// Server is the bridge's diagnostic HTTP server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	controller apron.Controller
	engine     Engine
	mqtt       ConnectionStatus
	version    string
	startTime  time.Time
	server     *http.Server
	hub        *Hub
	cancel     context.CancelFunc // stops the hub on Close()
}

// New creates an API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("sync engine is required")
	}

	s := &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		controller: deps.Controller,
		engine:     deps.Engine,
		mqtt:       deps.MQTT,
		version:    deps.Version,
		startTime:  time.Now(),
	}
	s.hub = NewHub(deps.Logger)
	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, hooks the broker-traffic ring into it,
// and launches the HTTP listener in a background goroutine. The server
// is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop the hub independently of the
	// parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.streamMessages()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", s.server.Addr)
	return nil
}

// streamMessages relays every ring append to WebSocket clients on the
// messages channel.
func (s *Server) streamMessages() {
	log := s.engine.Messages()
	if log == nil {
		return
	}
	log.SetNotify(func(m bridge.Message) {
		s.hub.Broadcast(ChannelMessages, m)
	})
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Stop streaming before the hub goes away.
	if log := s.engine.Messages(); log != nil {
		log.SetNotify(nil)
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
