package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carboncue-backend/internal/engine"
	"carboncue-backend/internal/refdata"
)

// GetGPUs lists the known GPU names.
func (h *Handler) GetGPUs(c *gin.Context) {
	c.JSON(http.StatusOK, h.ai.Tables().GPUs())
}

// GetProviders lists the known cloud provider keys.
func (h *Handler) GetProviders(c *gin.Context) {
	c.JSON(http.StatusOK, h.ai.Tables().Providers())
}

// GetRegions lists the regions of one provider.
func (h *Handler) GetRegions(c *gin.Context) {
	regions, err := h.ai.Tables().Regions(c.Param("provider"))
	if err != nil {
		if errors.Is(err, refdata.ErrUnknownProvider) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found."})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, regions)
}

// CalculateAI runs the AI workload calculator.
func (h *Handler) CalculateAI(c *gin.Context) {
	var in engine.CalculationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, engine.InvalidFields())
		return
	}

	res, err := h.ai.Calculate(in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
