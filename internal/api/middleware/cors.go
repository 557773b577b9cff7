package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// CORSConfig lists the browser origins allowed to call the run API.
type CORSConfig struct {
	AllowOrigins []string
	MaxAge       time.Duration
}

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions,
	}, ", ")
	// Last-Event-ID lets EventSource clients reconnect to /events.
	corsRequestHeaders = strings.Join([]string{
		"Accept", "Authorization", "Content-Type", "Last-Event-ID", RequestIDHeader,
	}, ", ")
	corsExposedHeaders = strings.Join([]string{RequestIDHeader, "Location"}, ", ")
)

// DefaultCORSConfig allows every origin and caches preflights for an hour.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		MaxAge:       time.Hour,
	}
}

// CORS answers preflight requests with 204 and tags other responses with the allowed origin.
// An empty AllowOrigins falls back to DefaultCORSConfig.
func CORS(config CORSConfig) gin.HandlerFunc {
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = DefaultCORSConfig().AllowOrigins
	}
	wildcard := lo.Contains(config.AllowOrigins, "*")
	maxAge := strconv.Itoa(int(config.MaxAge / time.Second))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && lo.Contains(config.AllowOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", corsMethods)
		c.Header("Access-Control-Allow-Headers", corsRequestHeaders)
		c.Header("Access-Control-Expose-Headers", corsExposedHeaders)
		if config.MaxAge > 0 {
			c.Header("Access-Control-Max-Age", maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
