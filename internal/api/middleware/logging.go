package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"upload-ai/internal/app/common"
)

// StructuredLogging logs one line per request through zap. Probe endpoints are skipped.
func StructuredLogging(logger *zap.Logger) gin.HandlerFunc {
	logger = common.OrNop(logger)
	return gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health", "/metrics"},
		Formatter: func(param gin.LogFormatterParams) string {
			requestID, _ := param.Keys[RequestIDKey].(string)

			logger.Info("HTTP Request",
				zap.String("request_id", requestID),
				zap.String("method", param.Method),
				zap.String("path", param.Path),
				zap.Int("status", param.StatusCode),
				zap.Int64("latency_ms", param.Latency.Milliseconds()),
				zap.String("client_ip", param.ClientIP),
				zap.String("user_agent", param.Request.UserAgent()),
				zap.String("error", param.ErrorMessage),
			)

			return ""
		},
	})
}
