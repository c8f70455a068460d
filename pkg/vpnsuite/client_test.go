package vpnsuite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

func TestNotifyOpened(t *testing.T) {
	var received Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/events", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())

	deviceID := uint(7)
	connection := &model.VpnConnection{
		UserID: 2, Source: "tech", DeviceID: &deviceID, Destination: "10.8.0.2",
	}
	require.NoError(t, client.NotifyOpened(context.Background(), connection))

	require.Equal(t, EventConnectionOpened, received.Type)
	require.Equal(t, "tech", received.Username)
	require.NotNil(t, received.DeviceID)
	require.Equal(t, uint(7), *received.DeviceID)
	require.Equal(t, "10.8.0.2", received.Destination)
	require.False(t, received.Timestamp.IsZero())
}

func TestNotifyClosedRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	client.retrier.initial = time.Millisecond
	client.retrier.max = 2 * time.Millisecond

	deviceID := uint(7)
	require.NoError(t, client.NotifyClosed(context.Background(), "tech", &deviceID, nil))
	require.Equal(t, 2, attempts)
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	require.Error(t, client.NotifyClosed(context.Background(), "tech", nil, nil))
	require.Equal(t, 1, attempts)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	require.NoError(t, client.Ping(context.Background()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()
	require.Error(t, NewClient(down.URL, zerolog.Nop()).Ping(context.Background()))
}
