package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/pkg/metrics"
	"github.com/shreyescodes/erp-portal/internal/pkg/ratelimit"
)

// RequestLogger logs every finished request
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("clientIp", c.ClientIP()).
			Msg("Request handled")
	}
}

// BodyLimit answers 413 for request bodies above limit bytes. Bodies without a
// declared length are cut off at the limit while being read.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorAPIResponse(
				dto.NewErrorDetail(dto.ErrorCodeFileTooLarge, "Request body is too large")))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// CORS allows the configured origins. A single "*" allows any origin without credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// Metrics records request counts and latency by route template
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.RequestStarted()
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// RateLimit limits requests per client IP. When the limiter backend fails the
// request is let through.
func RateLimit(limiter ratelimit.Limiter, m *metrics.Metrics, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn().Err(err).Msg("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			if m != nil {
				m.RateLimited()
			}
			c.Header("Retry-After", strconv.Itoa(int(res.ResetIn.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorAPIResponse(
				dto.NewErrorDetail(dto.ErrorCodeRateLimited, "Too many requests, please try again later")))
			return
		}
		c.Next()
	}
}
