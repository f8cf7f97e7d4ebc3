package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"carboncue-backend/internal/engine"
	"carboncue-backend/internal/store"
)

// errPushDisabled reports that no VAPID key pair is configured.
var errPushDisabled = errors.New("push notifications are not configured")

// respondError writes err as {"error": message} with the status of its kind.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *engine.ValidationError
		lookupErr     *engine.LookupError
		unsupported   *engine.UnsupportedCategoryError
		upstream      *engine.UpstreamError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &lookupErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": lookupErr.Message})
	case errors.As(err, &unsupported):
		c.JSON(http.StatusBadRequest, gin.H{"error": unsupported.Error()})
	case errors.As(err, &upstream):
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("upstream failure")
		body := gin.H{"error": upstream.Error()}
		if upstream.Status != 0 {
			body["upstreamStatus"] = upstream.Status
		}
		c.JSON(http.StatusBadGateway, body)
	case errors.Is(err, errPushDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured."})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	case errors.Is(err, store.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered."})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
	}
}

// respondBindError reports a request body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body."
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL.", fe.Field())
	case "notfuture":
		return fmt.Sprintf("%s cannot be in the future.", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}
