package supervisor

import (
	"bytes"

	"github.com/gorilla/websocket"

	"github.com/c360/sensorlink/errors"
	"github.com/c360/sensorlink/pkg/timestamp"
	"github.com/c360/sensorlink/protocol"
)

// Handle registers the handler for one message type, replacing any previous
// registration. Each type routes to exactly one handler.
func (s *Supervisor) Handle(t protocol.Type, h Handler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	if h == nil {
		delete(s.handlers, t)
		return
	}
	s.handlers[t] = h
}

func (s *Supervisor) handler(t protocol.Type) Handler {
	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()
	return s.handlers[t]
}

// readLoop pulls frames off one connection until it dies. Dispatch happens
// inline, so handlers see messages in strict arrival order.
func (s *Supervisor) readLoop(conn *websocket.Conn, epoch uint64) {
	defer s.wg.Done()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.connectionEnded(epoch, err)
			return
		}
		s.dispatch(data)
	}
}

// connectionEnded runs the teardown for a dead connection. Only the loop
// belonging to the current epoch performs it; loops for connections already
// replaced by Disconnect or Reconnect return quietly.
func (s *Supervisor) connectionEnded(epoch uint64, err error) {
	s.mu.Lock()
	if s.connEpoch != epoch {
		s.mu.Unlock()
		return
	}
	intentional := s.closing
	done := s.connDone
	s.conn = nil
	s.connDone = nil
	s.connEpoch++
	s.setStateLocked(StateDisconnected)

	scheduled := false
	attempt := 0
	if !intentional {
		scheduled = s.scheduleRetryLocked()
		attempt = s.attempts
	}
	s.mu.Unlock()

	if done != nil {
		close(done)
	}
	s.metrics.disconnectsTotal.Inc()

	switch {
	case intentional || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		s.logger.Info("connection closed", "reason", err)
	case scheduled:
		s.recordError(err)
		s.logger.Warn("connection lost, retrying",
			"error", err,
			"attempt", attempt,
			"max_attempts", s.cfg.Reconnect.MaxAttempts,
			"delay", s.cfg.Reconnect.Delay())
	default:
		s.recordError(err)
		s.logger.Error("connection lost, retries exhausted; call Reconnect to resume", "error", err)
	}
}

// dispatch parses, decodes, and routes one inbound frame. Malformed frames
// and unknown types are counted and dropped; they never kill the loop.
func (s *Supervisor) dispatch(data []byte) {
	// The bridge forwards serial telemetry lines verbatim. They are not
	// JSON; the leading T: field marks them.
	if bytes.HasPrefix(data, []byte("T:")) {
		s.dispatchPacket(data)
		return
	}

	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		s.metrics.messagesDropped.Inc()
		s.logger.Warn("dropping unparseable message", "error", err)
		return
	}
	s.metrics.messagesReceived.WithLabelValues(string(env.Type)).Inc()

	msg, err := protocol.Decode(env)
	if err != nil {
		s.metrics.messagesDropped.Inc()
		if errors.Is(err, errors.ErrUnknownType) {
			s.logger.Debug("dropping message of unknown type", "type", string(env.Type))
		} else {
			s.logger.Warn("dropping undecodable message", "type", string(env.Type), "error", err)
		}
		return
	}

	// Transport-level housekeeping happens before user handlers.
	switch env.Type {
	case protocol.TypePong:
		now := timestamp.Now()
		s.lastPongMs.Store(now)
		s.metrics.lastPongUnixMs.Set(float64(now))
	case protocol.TypePing:
		if err := s.Send(protocol.TypePong, nil); err != nil {
			s.logger.Debug("pong reply failed", "error", err)
		}
	}

	h := s.handler(env.Type)
	if h == nil {
		if env.Type != protocol.TypePong && env.Type != protocol.TypePing {
			s.logger.Debug("no handler registered", "type", string(env.Type))
		}
		return
	}
	h(msg)
}

// bridgePacketLabel is the metrics label for bridge text telemetry, which
// carries no wire type of its own.
const bridgePacketLabel = "bridge_packet"

// dispatchPacket decodes one bridge telemetry line and hands each reading
// to the raw-data handler, normalizing the packet epoch to milliseconds.
// A malformed line is dropped; it never kills the loop.
func (s *Supervisor) dispatchPacket(data []byte) {
	pkt, err := protocol.ParsePacket(string(data))
	if err != nil {
		s.metrics.messagesDropped.Inc()
		s.logger.Debug("dropping malformed telemetry packet", "error", err)
		return
	}
	s.metrics.messagesReceived.WithLabelValues(bridgePacketLabel).Inc()

	h := s.handler(protocol.TypeArduinoRawData)
	if h == nil {
		s.logger.Debug("no handler registered", "type", bridgePacketLabel)
		return
	}

	ts := protocol.Epoch(timestamp.Coerce(pkt.Timestamp))
	for _, v := range pkt.Readings {
		h(protocol.RawData{Voltage: v, Timestamp: ts})
	}
}
