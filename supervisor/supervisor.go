package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/sensorlink/component"
	"github.com/c360/sensorlink/config"
	"github.com/c360/sensorlink/errors"
	"github.com/c360/sensorlink/metric"
	"github.com/c360/sensorlink/pkg/timestamp"
	"github.com/c360/sensorlink/protocol"
)

const componentName = "connection-supervisor"

// manualReconnectDelay is the pause between the teardown and redial halves
// of an explicit Reconnect call. It gives the remote side time to reap the
// old session before the new handshake arrives.
const manualReconnectDelay = 500 * time.Millisecond

// Handler consumes one decoded inbound message. Handlers run on the read
// goroutine and must return quickly.
type Handler func(msg any)

// Supervisor owns the websocket connection to the detection service.
type Supervisor struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *supervisorMetrics
	dialer  *websocket.Dialer

	// mu guards conn, state, attempts, timers, and the connection epoch.
	// connEpoch increments whenever the active connection changes so stale
	// read loops can tell they have been replaced.
	mu           sync.Mutex
	conn         *websocket.Conn
	connDone     chan struct{}
	connEpoch    uint64
	state        ConnectionState
	attempts     int
	retryTimer   *time.Timer
	closing      bool
	started      bool
	shuttingDown bool
	lifecycle    component.State

	// writeMu serializes writes; gorilla connections allow one writer.
	writeMu sync.Mutex

	handlersMu sync.RWMutex
	handlers   map[protocol.Type]Handler

	lastPongMs atomic.Int64
	errorCount atomic.Int64
	lastErr    atomic.Value // string

	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a supervisor for the configured endpoint. The registrar may be
// nil, in which case metrics are collected but not exported.
func New(cfg *config.Config, logger *slog.Logger, reg metric.MetricsRegistrar) (*Supervisor, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("nil config"), componentName, "New", "validate arguments")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m, err := newSupervisorMetrics(reg, componentName)
	if err != nil {
		return nil, errors.WrapInvalid(err, componentName, "New", "register metrics")
	}

	return &Supervisor{
		cfg:     cfg,
		logger:  logger.With("component", componentName),
		metrics: m,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.Endpoint.HandshakeTimeout(),
		},
		handlers:  make(map[protocol.Type]Handler),
		lifecycle: component.StateCreated,
	}, nil
}

// Lifecycle returns the supervisor's lifecycle state, distinct from the
// connection state: a started supervisor may well be disconnected.
func (s *Supervisor) Lifecycle() component.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle
}

// Meta returns component metadata.
func (s *Supervisor) Meta() component.Metadata {
	return component.Metadata{
		Name:        componentName,
		Type:        "transport",
		Description: "Websocket session supervisor with bounded reconnection",
		Version:     s.cfg.Version,
	}
}

// Health reports transport health. Healthy means a live connection.
func (s *Supervisor) Health() component.HealthStatus {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()

	h := component.HealthStatus{
		Healthy:    st == StateConnected,
		LastCheck:  time.Now(),
		ErrorCount: int(s.errorCount.Load()),
	}
	if v := s.lastErr.Load(); v != nil {
		h.LastError = v.(string)
	}
	if !s.startedAt.IsZero() {
		h.Uptime = time.Since(s.startedAt)
	}
	return h
}

// Initialize prepares the supervisor. It does not open the connection.
func (s *Supervisor) Initialize() error {
	s.mu.Lock()
	s.lifecycle = component.StateInitialized
	s.mu.Unlock()
	return nil
}

// Start opens the connection and begins supervising it. A dial failure does
// not fail Start; the retry schedule takes over.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStarted, componentName, "Start", "check lifecycle state")
	}
	s.started = true
	s.shuttingDown = false
	s.startedAt = time.Now()
	s.lifecycle = component.StateStarted
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if err := s.Connect(); err != nil {
		s.logger.Warn("initial connect failed, retry scheduled", "error", err)
	}
	return nil
}

// Stop tears the connection down and waits for the supervisor's goroutines
// to exit.
func (s *Supervisor) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStopped, componentName, "Stop", "check lifecycle state")
	}
	s.started = false
	s.shuttingDown = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.Disconnect()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.setLifecycle(component.StateStopped)
		return nil
	case <-time.After(timeout):
		s.setLifecycle(component.StateFailed)
		return errors.WrapTransient(
			fmt.Errorf("goroutines still running after %v", timeout),
			componentName, "Stop", "await shutdown")
	}
}

func (s *Supervisor) setLifecycle(st component.State) {
	s.mu.Lock()
	s.lifecycle = st
	s.mu.Unlock()
}

// State returns the current connection state.
func (s *Supervisor) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastPongAt returns the arrival time of the most recent pong, or the zero
// time if none has arrived.
func (s *Supervisor) LastPongAt() time.Time {
	ms := s.lastPongMs.Load()
	if ms == 0 {
		return time.Time{}
	}
	return timestamp.FromUnixMs(ms)
}

// Connect dials the endpoint. It is a no-op while a connection is open or a
// dial is in progress, so repeated calls never stack transports. A dial
// failure transitions to disconnected and schedules a retry.
func (s *Supervisor) Connect() error {
	s.mu.Lock()
	if s.state == StateConnected || s.state == StateConnecting {
		s.mu.Unlock()
		return nil
	}
	if s.shuttingDown {
		s.mu.Unlock()
		return errors.WrapInvalid(errors.ErrShuttingDown, componentName, "Connect", "check lifecycle state")
	}
	s.setStateLocked(StateConnecting)
	ctx := s.runCtx()
	s.mu.Unlock()

	s.logger.Info("connecting", "url", s.cfg.Endpoint.URL)
	conn, resp, err := s.dialer.DialContext(ctx, s.cfg.Endpoint.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		s.recordError(err)
		s.mu.Lock()
		s.setStateLocked(StateDisconnected)
		scheduled := s.scheduleRetryLocked()
		attempt := s.attempts
		s.mu.Unlock()

		if scheduled {
			s.logger.Warn("connect failed, retrying",
				"error", err,
				"attempt", attempt,
				"max_attempts", s.cfg.Reconnect.MaxAttempts,
				"delay", s.cfg.Reconnect.Delay())
		} else {
			s.logger.Error("connect failed, retries exhausted", "error", err)
		}
		return errors.WrapTransient(err, componentName, "Connect", "dial endpoint")
	}

	s.mu.Lock()
	if s.shuttingDown || s.state != StateConnecting {
		// Torn down while the handshake was in flight.
		s.mu.Unlock()
		conn.Close()
		return nil
	}
	s.conn = conn
	s.connDone = make(chan struct{})
	s.connEpoch++
	s.closing = false
	s.attempts = 0
	s.setStateLocked(StateConnected)
	epoch := s.connEpoch
	done := s.connDone
	s.mu.Unlock()

	s.metrics.connectsTotal.Inc()
	s.logger.Info("connected", "url", s.cfg.Endpoint.URL)

	s.wg.Add(2)
	go s.readLoop(conn, epoch)
	go s.heartbeatLoop(ctx, done)

	// The remote snapshot may have drifted while we were away.
	if err := s.Send(protocol.TypeGetStatus, nil); err != nil {
		s.logger.Warn("post-connect status poll failed", "error", err)
	}
	return nil
}

// Disconnect closes the connection and cancels any pending retry. No
// automatic reconnection follows a manual disconnect.
func (s *Supervisor) Disconnect() {
	s.mu.Lock()
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	conn := s.conn
	done := s.connDone
	s.conn = nil
	s.connDone = nil
	s.connEpoch++
	s.closing = true
	s.setStateLocked(StateDisconnected)
	s.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
		s.metrics.disconnectsTotal.Inc()
		s.logger.Info("disconnected")
	}
	if done != nil {
		close(done)
	}
}

// Reconnect forces a fresh connection and resets the retry budget. This is
// the only way out of StateError.
func (s *Supervisor) Reconnect() {
	s.logger.Info("manual reconnect requested")
	s.Disconnect()

	s.mu.Lock()
	s.attempts = 0
	if s.shuttingDown {
		s.mu.Unlock()
		return
	}
	s.retryTimer = time.AfterFunc(manualReconnectDelay, func() {
		_ = s.Connect()
	})
	s.mu.Unlock()
}

// OnResume is the foreground trigger: called when the application regains
// attention, it redials if the connection lapsed in the background. It does
// not override StateError, which requires an explicit Reconnect.
func (s *Supervisor) OnResume() {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	if st != StateDisconnected {
		return
	}
	s.logger.Debug("resume trigger, redialing")
	_ = s.Connect()
}

// Send encodes and writes one outbound message. Without a live connection
// the message is dropped with a warning and ErrNotConnected is returned;
// callers treating sends as fire-and-forget may ignore the error.
func (s *Supervisor) Send(t protocol.Type, payload any) error {
	s.mu.Lock()
	conn := s.conn
	connected := s.state == StateConnected
	s.mu.Unlock()

	if !connected || conn == nil {
		s.logger.Warn("dropping outbound message, not connected", "type", string(t))
		return errors.WrapTransient(errors.ErrNotConnected, componentName, "Send", "check connection")
	}

	data, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()
	if err != nil {
		s.recordError(err)
		return errors.WrapTransient(err, componentName, "Send", "write message")
	}

	s.metrics.messagesSent.WithLabelValues(string(t)).Inc()
	return nil
}

// scheduleRetryLocked arms the next automatic reconnect attempt, or parks
// the supervisor in StateError when the budget is spent. Caller holds mu.
func (s *Supervisor) scheduleRetryLocked() bool {
	if s.shuttingDown {
		return false
	}
	if s.attempts >= s.cfg.Reconnect.MaxAttempts {
		s.setStateLocked(StateError)
		s.lastErr.Store(errors.ErrReconnectsSpent.Error())
		return false
	}
	s.attempts++
	s.metrics.reconnectAttempts.Inc()
	s.retryTimer = time.AfterFunc(s.cfg.Reconnect.Delay(), func() {
		_ = s.Connect()
	})
	return true
}

func (s *Supervisor) setStateLocked(st ConnectionState) {
	s.state = st
	s.metrics.connectionState.Set(float64(st))
}

func (s *Supervisor) runCtx() context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

func (s *Supervisor) recordError(err error) {
	s.errorCount.Add(1)
	s.lastErr.Store(err.Error())
}
