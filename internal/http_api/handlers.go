package http_api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PriceResponse is the body of the /api/v1/price endpoint.
type PriceResponse struct {
	Pair      string  `json:"pair"`
	LastPrice float64 `json:"last_price"`
}

// health is a handler for the /healthz endpoint.
func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// nodeInfo is a handler for the /api/v1/node_info endpoint.
// It returns the status reported by the ledger node.
func (s *HTTPServer) nodeInfo(c *gin.Context) {
	info, err := s.custos.NodeInfo(c.Request.Context())
	if err != nil {
		s.logger.Errorw("Failed to get node info", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "node unavailable"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// price is a handler for the /api/v1/price endpoint.
func (s *HTTPServer) price(c *gin.Context) {
	price, err := s.custos.LastPrice(c.Request.Context())
	if err != nil {
		s.logger.Errorw("Failed to get price", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "price unavailable"})
		return
	}
	c.JSON(http.StatusOK, PriceResponse{Pair: "iotusd", LastPrice: price})
}
