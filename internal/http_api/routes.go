package http_api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	v1.GET("/wallet/:address", s.walletBalance)
	v1.GET("/wallet/:address/analytics", s.walletAnalytics)

	if s.webhook != nil {
		s.router.POST("/telegram/webhook", gin.WrapH(s.webhook))
	}
}
