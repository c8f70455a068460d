package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	summary := s.health.Collect(c.Request.Context())
	status := http.StatusOK
	if !summary.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, summary)
}
