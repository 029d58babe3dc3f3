package middleware

import (
	"fmt"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gin-gonic/gin"
)

// ReactionRateLimit caps how fast one user can toggle reactions. Anonymous
// callers are keyed by client IP.
func ReactionRateLimit(perSecond float64, burst int) gin.HandlerFunc {
	lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	if burst > 0 {
		lmt.SetBurst(burst)
	}
	lmt.SetMessage("Too many reactions, please slow down.")

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id := CurrentUserID(c); id != 0 {
			key = fmt.Sprintf("user:%d", id)
		}
		if httpErr := tollbooth.LimitByKeys(lmt, []string{key}); httpErr != nil {
			c.AbortWithStatusJSON(httpErr.StatusCode, gin.H{"error": httpErr.Message})
			return
		}
		c.Next()
	}
}
