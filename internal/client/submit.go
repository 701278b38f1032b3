// Package client is the submission entry point the form UI calls. It either
// short-circuits to a canned mock reply or posts to the local diagnosis
// endpoint, and always hands the caller a well-formed envelope or a typed
// transport/parsing error, never a malformed object.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"diagnosis-api/internal/common/errors"
	"diagnosis-api/internal/common/logger"
	"diagnosis-api/internal/diagnosis"
)

// mockDelay simulates the engine round trip so the UI's waiting state can be
// exercised without the engine.
const mockDelay = 1500 * time.Millisecond

const mockFallbackTask = "問い合わせ対応"

type Submitter struct {
	endpoint   string
	useMock    bool
	httpClient *http.Client
	logger     logger.Logger
}

func NewSubmitter(endpoint string, useMock bool, log logger.Logger) *Submitter {
	return &Submitter{
		endpoint:   endpoint,
		useMock:    useMock,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.WithFields(map[string]interface{}{"component": "submitter"}),
	}
}

// Submit validates the form, then sends it and returns the reply envelope.
// Validation runs here so an incomplete form never leaves the client.
func (s *Submitter) Submit(ctx context.Context, form diagnosis.FormData) (diagnosis.EngineResponse, error) {
	if errs := diagnosis.ValidateForm(form); !errs.Valid() {
		fields := make([]string, 0, len(errs))
		for field := range errs {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		return diagnosis.EngineResponse{}, errors.NewValidationError("invalid fields: " + strings.Join(fields, ", "))
	}

	if s.useMock {
		return s.mockSubmit(ctx, form)
	}
	return s.realSubmit(ctx, form)
}

func (s *Submitter) mockSubmit(ctx context.Context, form diagnosis.FormData) (diagnosis.EngineResponse, error) {
	select {
	case <-time.After(mockDelay):
	case <-ctx.Done():
		return diagnosis.EngineResponse{}, ctx.Err()
	}

	task := form.Task1Name
	if task == "" {
		task = mockFallbackTask
	}
	return diagnosis.EngineResponse{
		Status:           "success",
		BottleneckTask:   task,
		MonthlySavedCost: float64(diagnosis.DefaultBaseSavedCost),
	}, nil
}

func (s *Submitter) realSubmit(ctx context.Context, form diagnosis.FormData) (diagnosis.EngineResponse, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return diagnosis.EngineResponse{}, errors.NewTransportError("フォームデータの変換に失敗しました。", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return diagnosis.EngineResponse{}, errors.NewTransportError("リクエストの作成に失敗しました。", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return diagnosis.EngineResponse{}, errors.NewTransportError("通信エラーが発生しました。", err)
	}
	defer resp.Body.Close()

	// Read as text first; the reply is not trusted to be JSON.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return diagnosis.EngineResponse{}, errors.NewTransportError("応答の読み取りに失敗しました。", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "送信に失敗しました。入力内容をご確認ください。"
		if resp.StatusCode >= 500 {
			msg = "サーバーエラーが発生しました。しばらくしてからお試しください。"
		}
		return diagnosis.EngineResponse{}, errors.NewUpstreamHTTPError(resp.StatusCode, msg)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return diagnosis.EngineResponse{}, errors.NewUpstreamFormatError("empty response body", "応答が空です。")
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return diagnosis.EngineResponse{}, errors.NewUpstreamFormatError(err.Error(), "応答の解析に失敗しました。")
	}

	envelope := diagnosis.EngineResponseFromMap(parsed)
	if envelope.Status != "success" && envelope.Status != "error" {
		// An unrecognized reply becomes a synthetic error envelope instead
		// of propagating a malformed object to the UI.
		s.logger.Warn("unrecognized reply status, normalizing", map[string]interface{}{
			"status": envelope.Status,
		})
		return diagnosis.EngineResponse{
			Status:  "error",
			Message: "診断結果を取得できませんでした。しばらくしてからお試しください。",
		}, nil
	}

	return envelope, nil
}
