package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okResponse = `{"ok":true,"result":{"message_id":7,"date":1767607200,"chat":{"id":8446431956,"type":"private"},"text":"hi"}}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTelegram(t *testing.T, h http.HandlerFunc) *Telegram {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	n, err := New(Config{Token: "123:abc", ChatID: "8446431956", APIURL: srv.URL, Timeout: 5 * time.Second}, discardLogger())
	require.NoError(t, err)
	return n
}

func TestSendPostsChatAndText(t *testing.T) {
	var path string
	var body map[string]any
	n := newTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, okResponse)
	})

	require.True(t, n.Configured())
	require.NoError(t, n.Send(context.Background(), "🚨 SEAT AVAILABLE! 🚨"))

	assert.Equal(t, "/bot123:abc/sendMessage", path)
	assert.Equal(t, "8446431956", body["chat_id"])
	assert.Equal(t, "🚨 SEAT AVAILABLE! 🚨", body["text"])
}

func TestSendMissingTokenMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	n, err := New(Config{ChatID: "1", APIURL: srv.URL}, discardLogger())
	require.NoError(t, err)
	assert.False(t, n.Configured())

	err = n.Send(context.Background(), "hello")
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, calls.Load())
}

func TestSendRejected(t *testing.T) {
	n := newTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	})

	err := n.Send(context.Background(), "hello")
	var ne *NotifyError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "hello", ne.Text)
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	n, err := New(Config{Token: "123:abc", ChatID: "1", APIURL: url, Timeout: time.Second}, discardLogger())
	require.NoError(t, err)

	err = n.Send(context.Background(), "hello")
	var ne *NotifyError
	require.ErrorAs(t, err, &ne)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestSendEmptyText(t *testing.T) {
	var calls atomic.Int32
	n := newTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	var ne *NotifyError
	require.ErrorAs(t, n.Send(context.Background(), "  "), &ne)
	assert.Zero(t, calls.Load())
}
