package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	txndomain "github.com/smallbiznis/marketpay/internal/transaction/domain"
)

func (s *Server) CreatePaymentIntent(c *gin.Context) {
	var req txndomain.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.txnSvc.CreatePaymentIntent(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) CreateCheckoutSession(c *gin.Context) {
	var req txndomain.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.txnSvc.CreateCheckoutSession(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListTransactions(c *gin.Context) {
	var req txndomain.ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.txnSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetTransaction(c *gin.Context) {
	txn, err := s.txnSvc.GetByID(c.Request.Context(), txndomain.GetTransactionRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) UpdateTransactionInternalStatus(c *gin.Context) {
	var req txndomain.UpdateInternalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ID = c.Param("id")

	txn, err := s.txnSvc.UpdateInternalStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) CancelSubscription(c *gin.Context) {
	err := s.txnSvc.CancelSubscription(c.Request.Context(), txndomain.CancelSubscriptionRequest{
		SubscriptionID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canceled": true})
}
