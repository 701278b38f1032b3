package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagnosis-api/internal/common/errors"
	"diagnosis-api/internal/common/logger"
	"diagnosis-api/internal/diagnosis"
)

func validForm() diagnosis.FormData {
	return diagnosis.FormData{
		CompanyName:      "株式会社テスト",
		ContactName:      "山田太郎",
		BackofficePeople: 3,
		HourlyCost:       "2000-3000",
		BudgetLevel:      "medium",
		Task1Name:        "月次請求書作成",
		Task1Freq:        5,
		Task1Time:        60,
	}
}

func TestSubmit_RejectsInvalidForm(t *testing.T) {
	s := NewSubmitter("http://127.0.0.1:1", false, logger.NewTestLogger(t))

	form := validForm()
	form.CompanyName = ""
	form.Task1Freq = 0
	_, err := s.Submit(context.Background(), form)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeValidation, stdErr.Code)
	assert.Contains(t, stdErr.Details, "company_name")
	assert.Contains(t, stdErr.Details, "task1_freq")
}

func TestMockSubmit_ReturnsCannedEnvelope(t *testing.T) {
	s := NewSubmitter("", true, logger.NewTestLogger(t))

	start := time.Now()
	resp, err := s.Submit(context.Background(), validForm())

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), mockDelay)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "月次請求書作成", resp.BottleneckTask)
	assert.Equal(t, float64(48000), resp.MonthlySavedCost)
}

func TestMockSubmit_FallbackTaskName(t *testing.T) {
	s := NewSubmitter("", true, logger.NewTestLogger(t))

	resp, err := s.mockSubmit(context.Background(), diagnosis.FormData{})

	require.NoError(t, err)
	assert.Equal(t, "問い合わせ対応", resp.BottleneckTask)
}

func TestMockSubmit_CancelledContext(t *testing.T) {
	s := NewSubmitter("", true, logger.NewTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.Submit(ctx, validForm())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRealSubmit_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var form diagnosis.FormData
		require.NoError(t, json.NewDecoder(r.Body).Decode(&form))
		assert.Equal(t, "株式会社テスト", form.CompanyName)
		w.Write([]byte(`{"status":"success","bottleneckTask":"月次請求書作成","monthlySavedCost":48000}`))
	}))
	defer ts.Close()

	s := NewSubmitter(ts.URL, false, logger.NewTestLogger(t))
	resp, err := s.Submit(context.Background(), validForm())

	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "月次請求書作成", resp.BottleneckTask)
}

func TestRealSubmit_ErrorEnvelopePassesThrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"入力内容に誤りがあります。"}`))
	}))
	defer ts.Close()

	s := NewSubmitter(ts.URL, false, logger.NewTestLogger(t))
	resp, err := s.Submit(context.Background(), validForm())

	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "入力内容に誤りがあります。", resp.Message)
}

func TestRealSubmit_HTTPStatusMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
	}{
		{"server error", http.StatusBadGateway, "サーバーエラーが発生しました。しばらくしてからお試しください。"},
		{"client error", http.StatusUnprocessableEntity, "送信に失敗しました。入力内容をご確認ください。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			s := NewSubmitter(ts.URL, false, logger.NewTestLogger(t))
			_, err := s.Submit(context.Background(), validForm())

			var stdErr *errors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, errors.ErrCodeUpstreamHTTP, stdErr.Code)
			assert.Equal(t, tt.message, stdErr.Message)
		})
	}
}

func TestRealSubmit_EmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	s := NewSubmitter(ts.URL, false, logger.NewTestLogger(t))
	_, err := s.Submit(context.Background(), validForm())

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeUpstreamFormat, stdErr.Code)
}

func TestRealSubmit_MalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<!doctype html><title>Error</title>`))
	}))
	defer ts.Close()

	s := NewSubmitter(ts.URL, false, logger.NewTestLogger(t))
	_, err := s.Submit(context.Background(), validForm())

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeUpstreamFormat, stdErr.Code)
}

func TestRealSubmit_UnrecognizedStatusNormalized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"done"}`))
	}))
	defer ts.Close()

	s := NewSubmitter(ts.URL, false, logger.NewTestLogger(t))
	resp, err := s.Submit(context.Background(), validForm())

	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "診断結果を取得できませんでした。しばらくしてからお試しください。", resp.Message)
}

func TestRealSubmit_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	s := NewSubmitter(ts.URL, false, logger.NewTestLogger(t))
	_, err := s.Submit(context.Background(), validForm())

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeTransport, stdErr.Code)
}
