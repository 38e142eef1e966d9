package supervisor

import (
	"context"
	"time"

	"github.com/c360/sensorlink/protocol"
)

// heartbeatLoop drives the keepalive ping and the periodic status poll for
// one connection. It exits when that connection's done channel closes.
func (s *Supervisor) heartbeatLoop(ctx context.Context, done <-chan struct{}) {
	defer s.wg.Done()

	ping := time.NewTicker(s.cfg.Heartbeat.PingInterval())
	defer ping.Stop()
	status := time.NewTicker(s.cfg.Heartbeat.StatusInterval())
	defer status.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := s.Send(protocol.TypePing, nil); err == nil {
				s.metrics.pingsSent.Inc()
			}
		case <-status.C:
			if err := s.Send(protocol.TypeGetStatus, nil); err != nil {
				s.logger.Debug("status poll failed", "error", err)
			}
		}
	}
}
