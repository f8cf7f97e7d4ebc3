package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"carboncue-backend/config"
	"carboncue-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	registerValidators()

	r := gin.Default()
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders: []string{mw.CacheHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	caching := mw.Cache(cache.New(cacheTTL, 2*cacheTTL), cacheTTL)
	authenticate := mw.Authenticate(h.tokens)
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// API group
	api := r.Group("/api")
	{
		public := api.Group("")
		public.Use(rateLimiter)

		public.POST("/auth/signup", h.Signup)
		public.POST("/auth/login", h.Login)

		public.GET("/ai/gpus", caching, h.GetGPUs)
		public.GET("/ai/providers", caching, h.GetProviders)
		public.GET("/ai/providers/:provider/regions", caching, h.GetRegions)
		public.POST("/ai/calculate", h.CalculateAI)

		public.POST("/website/calculate", h.CalculateWebsite)
		public.POST("/website/analyze", h.AnalyzeWebsite)

		public.POST("/funfacts", h.GetFunFacts)
		public.GET("/vapid_public_key", caching, h.GetVAPIDPublicKey)

		private := api.Group("")
		private.Use(authenticate, rateLimiter)

		private.GET("/auth/me", h.Me)

		private.POST("/activities", h.SubmitActivity)
		private.GET("/activities", h.ListActivities)
		private.GET("/activities/daily-categories", h.GetDailyCategories)
		private.GET("/activities/yearly-trends", h.GetYearlyTrends)

		private.GET("/subscriptions", h.GetSubscriptions)
		private.PUT("/subscriptions", h.PutSubscription)
		private.DELETE("/subscriptions", h.DeleteSubscription)
	}

	return r
}
