package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/eain/internal/model"
	"github.com/roach88/eain/internal/store"
)

type evaluateRequest struct {
	Investor model.InvestorProfile `json:"investor"`
	Asset    model.AssetSnapshot   `json:"asset"`
}

type batchRequest struct {
	Investor model.InvestorProfile `json:"investor"`
	Assets   []model.AssetSnapshot `json:"assets"`
}

type batchResponse struct {
	Decisions []model.Decision `json:"decisions"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Asset == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset is required"})
		return
	}

	decision, err := s.client.EvaluateAsset(c.Request.Context(), req.Investor, req.Asset)
	if err != nil {
		s.logger.Error("evaluate failed", "symbol", req.Asset.Symbol(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (s *Server) batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decisions := s.client.BatchEvaluate(c.Request.Context(), req.Investor, req.Assets)
	if decisions == nil {
		decisions = []model.Decision{}
	}
	c.JSON(http.StatusOK, batchResponse{Decisions: decisions})
}

func (s *Server) getAtom(c *gin.Context) {
	id := c.Param("id")
	atom, err := s.client.GetAtom(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "atom not found", "id": id})
		return
	}
	if err != nil {
		s.logger.Error("get atom failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "atom lookup failed"})
		return
	}
	c.JSON(http.StatusOK, atom)
}
