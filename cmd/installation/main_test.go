package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lego-house/config"
)

func haConfig(t *testing.T, url string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("devices:\n  lights: homeassistant\nhomeassistant:\n  url: " + url + "\n  token: tok\n"))
	require.NoError(t, err)
	return cfg
}

func TestCreateTransport_HomeAssistantUnreachableIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := createTransport(haConfig(t, server.URL), "homeassistant", nil, nil, logger)
	assert.ErrorContains(t, err, "home assistant")
}

func TestCreateTransport_HomeAssistantReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	transport, err := createTransport(haConfig(t, server.URL), "homeassistant", nil, nil, logger)
	require.NoError(t, err)
	assert.NotNil(t, transport)
}

func TestCreateTransport_UnknownBackend(t *testing.T) {
	cfg, err := config.Parse([]byte("{}"))
	require.NoError(t, err)

	_, err = createTransport(cfg, "zigbee", nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
