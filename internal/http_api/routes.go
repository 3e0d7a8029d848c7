package http_api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	s.router.GET("/healthz", s.health)
	s.router.GET("/api/v1/node_info", s.nodeInfo)
	s.router.GET("/api/v1/price", s.price)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	if s.webhook != nil {
		s.router.POST("/telegram/webhook", gin.WrapF(s.webhook))
	}
}
