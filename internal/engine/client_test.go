package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "diagnosis-api/internal/common/errors"
)

func requireStandardError(t *testing.T, err error) *stderrors.StandardError {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := err.(*stderrors.StandardError)
	require.True(t, ok, "expected *StandardError, got %T", err)
	return stdErr
}

func TestSubmit_Success(t *testing.T) {
	var received map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","bottleneckTask":"Invoicing","monthlySavedCost":100000}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 5*time.Second)
	data, err := client.Submit(context.Background(), map[string]interface{}{"company_name": "Acme"})

	require.NoError(t, err)
	reply, ok := data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "success", reply["status"])
	assert.Equal(t, "Invoicing", reply["bottleneckTask"])
	assert.Equal(t, float64(100000), reply["monthlySavedCost"])
	assert.Equal(t, "Acme", received["company_name"])
}

func TestSubmit_UpstreamHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 5*time.Second)
	_, err := client.Submit(context.Background(), map[string]interface{}{})

	stdErr := requireStandardError(t, err)
	assert.Equal(t, stderrors.ErrCodeUpstreamHTTP, stdErr.Code)
	assert.Equal(t, http.StatusBadGateway, stdErr.HTTPStatus())
}

func TestSubmit_HTMLBodyFailsSniff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>Error</html>"))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 5*time.Second)
	_, err := client.Submit(context.Background(), map[string]interface{}{})

	stdErr := requireStandardError(t, err)
	assert.Equal(t, stderrors.ErrCodeUpstreamFormat, stdErr.Code)
	assert.Equal(t, "invalid upstream response", stdErr.Message)
}

func TestSubmit_MalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success", "broken`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 5*time.Second)
	_, err := client.Submit(context.Background(), map[string]interface{}{})

	stdErr := requireStandardError(t, err)
	assert.Equal(t, stderrors.ErrCodeUpstreamFormat, stdErr.Code)
	assert.Equal(t, "malformed upstream response", stdErr.Message)
}

func TestSubmit_TransportError(t *testing.T) {
	// A server that is already closed guarantees a connection error.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	client := NewClient(ts.URL, 2*time.Second)
	_, err := client.Submit(context.Background(), map[string]interface{}{})

	stdErr := requireStandardError(t, err)
	assert.Equal(t, stderrors.ErrCodeTransport, stdErr.Code)
	assert.Equal(t, http.StatusInternalServerError, stdErr.HTTPStatus())
}

func TestSubmit_ArrayBodyIsValid(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"status":"success"}]`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 5*time.Second)
	data, err := client.Submit(context.Background(), map[string]interface{}{})

	require.NoError(t, err)
	_, ok := data.([]interface{})
	assert.True(t, ok)
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewClient("", time.Second).Configured())
	assert.True(t, NewClient("https://example.com/exec", time.Second).Configured())

	var nilClient *Client
	assert.False(t, nilClient.Configured())
}
