package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"diagnosis-api/internal/common/errors"
	"diagnosis-api/internal/common/metrics"
	"diagnosis-api/internal/diagnosis"
)

// User-safe messages for the diagnosis endpoint, keyed by failure class.
var diagnosisMessages = map[errors.ErrorCode]string{
	errors.ErrCodeConfigurationMissing: "サーバー設定エラー。診断サーバーのURLが未設定です。",
	errors.ErrCodeRequestParse:         "リクエストデータの解析に失敗しました。",
	errors.ErrCodeUpstreamHTTP:         "診断サーバーに接続できませんでした。しばらくしてからお試しください。",
	errors.ErrCodeUpstreamFormat:       "診断サーバーからの応答形式が正しくありません。",
	errors.ErrCodeTransport:            "通信エラーが発生しました。しばらくしてからお試しください。",
}

// handleDiagnosis proxies the survey payload to the scoring engine and, on a
// successful reply, kicks off persistence and the lead notification without
// blocking the response.
func (s *Server) handleDiagnosis() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			metrics.RequestDuration.WithLabelValues("diagnosis").Observe(time.Since(start).Seconds())
			if s.obs != nil {
				s.obs.RecordRequestDuration(c.Request.Context(), "diagnosis", time.Since(start))
			}
		}()

		if !s.engine.Configured() {
			s.respondError(c, "diagnosis",
				errors.NewConfigurationMissingError("engine.url", diagnosisMessages[errors.ErrCodeConfigurationMissing]),
				diagnosisMessages)
			return
		}

		body, err := decodeJSONBody(c)
		if err != nil {
			s.respondError(c, "diagnosis", errors.NewRequestParseError(diagnosisMessages[errors.ErrCodeRequestParse], err), diagnosisMessages)
			return
		}

		data, err := s.engine.Submit(c.Request.Context(), body)
		if err != nil {
			s.respondError(c, "diagnosis", err, diagnosisMessages)
			return
		}

		// Persist and notify only for a successful engine reply on a payload
		// that is recognizably a diagnosis form. Both side effects are
		// best-effort and never alter the response below.
		if reply, ok := data.(map[string]interface{}); ok && reply["status"] == "success" {
			if form, ok := body.(map[string]interface{}); ok && hasFormIdentity(form) {
				go s.persistAndNotify(form, diagnosis.EngineResponseFromMap(reply), "web")
			}
		}

		s.logger.Info("diagnosis request succeeded", map[string]interface{}{
			"requestID": c.GetString(requestIDKey),
		})
		metrics.RequestsTotal.WithLabelValues("diagnosis", "success").Inc()
		if s.obs != nil {
			s.obs.RecordRequest(c.Request.Context(), "diagnosis", "success")
		}
		c.JSON(http.StatusOK, data)
	}
}

func hasFormIdentity(form map[string]interface{}) bool {
	_, hasCompany := form["company_name"]
	_, hasTask := form["task1_name"]
	return hasCompany && hasTask
}

// persistAndNotify runs detached from the request: its own deadline, its own
// error channel (the log). A failed insert or webhook never reaches the
// client.
func (s *Server) persistAndNotify(form map[string]interface{}, resp diagnosis.EngineResponse, source string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if s.store != nil {
		row := diagnosis.NewRow(form, resp, source)
		if err := s.store.Insert(ctx, row); err != nil {
			s.logger.Error("diagnosis row insert failed", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			metrics.LeadRowsInserted.Inc()
		}
	}

	if s.slack.Configured() {
		if err := s.slack.NotifyDiagnosis(ctx, form, resp); err != nil {
			s.logger.Error("slack notification failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

// decodeJSONBody parses the request body as arbitrary JSON. gin's binding is
// bypassed on purpose: the payload is forwarded verbatim, not bound to a
// struct.
func decodeJSONBody(c *gin.Context) (interface{}, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}
