package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"diagnosis-api/internal/common/errors"
	"diagnosis-api/internal/common/metrics"
)

// User-safe messages for the consult endpoint. Vaguer than the diagnosis
// ones on purpose: the consult form is the last step before a human
// follow-up and the copy asks the visitor to simply retry.
var consultMessages = map[errors.ErrorCode]string{
	errors.ErrCodeConfigurationMissing: "サーバー設定エラー。送信先が未設定です。",
	errors.ErrCodeRequestParse:         "リクエストデータの解析に失敗しました。",
	errors.ErrCodeUpstreamHTTP:         "送信に失敗しました。しばらくしてからお試しください。",
	errors.ErrCodeUpstreamFormat:       "送信サーバーからの応答形式が正しくありません。",
	errors.ErrCodeTransport:            "送信に失敗しました。",
}

// handleConsult proxies the follow-up contact form to the engine with the
// consult action discriminator merged in.
func (s *Server) handleConsult() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			metrics.RequestDuration.WithLabelValues("consult").Observe(time.Since(start).Seconds())
			if s.obs != nil {
				s.obs.RecordRequestDuration(c.Request.Context(), "consult", time.Since(start))
			}
		}()

		if !s.engine.Configured() {
			s.respondError(c, "consult",
				errors.NewConfigurationMissingError("engine.url", consultMessages[errors.ErrCodeConfigurationMissing]),
				consultMessages)
			return
		}

		body, err := decodeJSONBody(c)
		if err != nil {
			s.respondError(c, "consult", errors.NewRequestParseError(consultMessages[errors.ErrCodeRequestParse], err), consultMessages)
			return
		}

		payload, ok := body.(map[string]interface{})
		if !ok {
			payload = map[string]interface{}{"payload": body}
		}
		payload["action"] = "consult"

		data, err := s.engine.Submit(c.Request.Context(), payload)
		if err != nil {
			s.respondError(c, "consult", err, consultMessages)
			return
		}

		if reply, ok := data.(map[string]interface{}); ok && reply["status"] == "success" && s.email.Configured() {
			go s.sendConsultEmail(payload)
		}

		s.logger.Info("consult request succeeded", map[string]interface{}{
			"requestID": c.GetString(requestIDKey),
		})
		metrics.RequestsTotal.WithLabelValues("consult", "success").Inc()
		if s.obs != nil {
			s.obs.RecordRequest(c.Request.Context(), "consult", "success")
		}
		c.JSON(http.StatusOK, data)
	}
}

// sendConsultEmail forwards the consult lead to the sales inbox,
// best-effort and detached from the request.
func (s *Server) sendConsultEmail(payload map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.email.NotifyConsult(ctx, payload); err != nil {
		s.logger.Error("consult email failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
