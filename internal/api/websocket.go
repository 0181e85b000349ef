package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"signal-bridge/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// websocket streams order reports to a connected dashboard as they happen.
func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	if s.Bus == nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"event bus not ready"}`))
		return
	}

	stream, unsub := s.Bus.Subscribe(events.EventOrderReported, 32)
	defer unsub()

	for msg := range stream {
		if err := conn.WriteJSON(msg); err != nil {
			logrus.WithError(err).Debug("ws write failed; closing")
			return
		}
	}
}
