package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type vapidKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

// GetVAPIDPublicKey returns the key browsers need to create a push
// subscription for this server.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		respondError(c, errPushDisabled)
		return
	}
	c.JSON(http.StatusOK, vapidKeyResponse{PublicKey: h.webpush.VAPIDPublicKey})
}
