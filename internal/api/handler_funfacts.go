package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carboncue-backend/internal/engine"
)

type funFactsRequest struct {
	CO2Kg *float64 `json:"co2Kg" binding:"required"`
}

// GetFunFacts converts an emission into everyday equivalents.
func (h *Handler) GetFunFacts(c *gin.Context) {
	var req funFactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	eq, err := engine.ComparativeEquivalents(*req.CO2Kg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eq)
}
