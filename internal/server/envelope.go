package server

import (
	"github.com/gin-gonic/gin"

	"diagnosis-api/internal/common/errors"
	"diagnosis-api/internal/common/metrics"
)

// phase names the pipeline step a failure happened at; logged alongside the
// non-PII detail of every classified error.
func phaseOf(code errors.ErrorCode) string {
	switch code {
	case errors.ErrCodeConfigurationMissing:
		return "config"
	case errors.ErrCodeRequestParse:
		return "request_parse"
	case errors.ErrCodeTransport:
		return "fetch"
	case errors.ErrCodeUpstreamHTTP:
		return "upstream_http"
	case errors.ErrCodeUpstreamFormat:
		return "upstream_format"
	default:
		return "unknown"
	}
}

// respondError writes the uniform error envelope. userMessages maps error
// codes to the endpoint's user-safe text; raw error detail stays in the log.
func (s *Server) respondError(c *gin.Context, endpoint string, err error, userMessages map[errors.ErrorCode]string) {
	stdErr, ok := err.(*errors.StandardError)
	if !ok {
		stdErr = errors.NewTransportError("通信エラーが発生しました。", err)
	}

	msg, ok := userMessages[stdErr.Code]
	if !ok {
		msg = stdErr.Message
	}

	s.logger.Error("request failed", map[string]interface{}{
		"endpoint":  endpoint,
		"phase":     phaseOf(stdErr.Code),
		"errorCode": string(stdErr.Code),
		"detail":    stdErr.Details,
		"requestID": c.GetString(requestIDKey),
	})
	metrics.RequestFailures.WithLabelValues(endpoint, phaseOf(stdErr.Code)).Inc()
	metrics.RequestsTotal.WithLabelValues(endpoint, "error").Inc()

	c.JSON(stdErr.HTTPStatus(), gin.H{
		"status":  "error",
		"message": msg,
	})
}
