package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"signal-bridge/internal/bridge"
)

// postSignal receives one alert and drives it through the bridge. The reply
// body is always JSON: either the exchange response forwarded verbatim or a
// {code, error} pair from the bridge taxonomy.
func (s *Server) postSignal(c *gin.Context) {
	var sig bridge.Signal
	if err := c.ShouldBindJSON(&sig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  bridge.CodeInvalidSignal,
			"error": "body must be JSON with pair and signal fields",
		})
		return
	}

	reply := s.Bridge.Process(c.Request.Context(), sig)
	c.JSON(reply.HTTPStatus, reply.Body)
}

// getStatus returns the point-in-time snapshot plus runtime metadata.
func (s *Server) getStatus(c *gin.Context) {
	snap := s.Status.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":         snap.Status,
		"uptime_sec":     snap.UptimeSec,
		"last_time":      snap.LastTime,
		"last_signal":    snap.LastSignal,
		"last_order_id":  snap.LastOrderID,
		"last_fill_time": snap.LastFillTime,
		"exchange":       s.Meta.Exchange,
		"dry_run":        s.Meta.DryRun,
		"version":        s.Meta.Version,
	})
}
