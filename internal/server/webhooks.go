package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/marketpay/internal/metrics"
	"go.uber.org/zap"
)

// HandleProcessorWebhook receives signed processor events. The response
// contract drives the sender's retry policy: 200 acknowledges (including
// unknown types and reconciliation no-ops), 400 rejects untrusted input
// for good, 500 asks for redelivery.
func (s *Server) HandleProcessorWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.metrics.RecordWebhookEvent("unknown", metrics.OutcomeRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	event, err := s.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		s.log.Warn("webhook verification failed", zap.Error(err))
		s.metrics.RecordWebhookEvent("unknown", metrics.OutcomeRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.router.Dispatch(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
