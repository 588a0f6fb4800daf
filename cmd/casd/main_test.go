package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPort(t *testing.T) {
	assert.Equal(t, ":8769", fromPort(8769))
	assert.Equal(t, ":80", fromPort(80))
}

func TestShutdown_ClosesCleanly(t *testing.T) {
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Start()
	defer srv.Close()

	httpServer := &http.Server{Addr: srv.Listener.Addr().String()}
	require.NoError(t, shutdown(httpServer))
}
