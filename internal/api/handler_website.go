package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carboncue-backend/internal/engine"
)

type websiteCalculateRequest struct {
	Breakdown    *engine.ByteBreakdown `json:"breakdown" binding:"required"`
	GreenHosting bool                  `json:"greenHosting"`
}

type websiteCalculateResponse struct {
	Breakdown engine.ByteBreakdown          `json:"breakdown"`
	Result    *engine.WebsiteEmissionResult `json:"result"`
}

type websiteAnalyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

// CalculateWebsite computes per-visit emissions from a byte breakdown.
// Result is null when the breakdown totals zero bytes.
func (h *Handler) CalculateWebsite(c *gin.Context) {
	var req websiteCalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	b := *req.Breakdown
	if err := b.Validate(); err != nil {
		respondError(c, err)
		return
	}

	resp := websiteCalculateResponse{Breakdown: b}
	if res, ok := engine.CalculateWebsiteEmissions(b.Total(), req.GreenHosting); ok {
		resp.Result = &res
	}
	c.JSON(http.StatusOK, resp)
}

// AnalyzeWebsite fetches a page, weighs it and computes its emissions.
func (h *Handler) AnalyzeWebsite(c *gin.Context) {
	var req websiteAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	analysis, err := h.website.Analyze(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
