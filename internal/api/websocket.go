package api

import (
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// handleWebSocket streams engine events to the client until either side
// closes. Incoming frames are read only to notice the close.
func (s *Server) handleWebSocket(c *websocket.Conn) {
	defer c.Close()

	events, unsubscribe := s.engine.Events().Subscribe(64)
	defer unsubscribe()

	s.metrics.IncrementActiveConnections()
	defer s.metrics.DecrementActiveConnections()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := c.WriteJSON(map[string]interface{}{
		"type":  "hello",
		"alert": s.engine.CaregiverAlert(),
	}); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteJSON(ev); err != nil {
				s.logger.Warn("WebSocket write error", zap.Error(err))
				return
			}
		}
	}
}
