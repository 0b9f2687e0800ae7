package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterProbeRoutes registers the connection test endpoint.
func (s *Server) RegisterProbeRoutes(r *gin.Engine) {
	r.POST("/api/probe", s.handleProbe)
}

// handleProbe runs a connection test and waits for its result
func (s *Server) handleProbe(c *gin.Context) {
	if s.tester == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "connection test is not configured"})
		return
	}

	res, err := s.tester.Run(c.Request.Context())
	if err != nil {
		writeSubmitError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
