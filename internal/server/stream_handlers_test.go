package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationStream_Guards(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.user(t, "streamer")

	assert.Equal(t, http.StatusUpgradeRequired, ts.call(t, http.MethodGet, "/api/ws", token, nil, nil))

	upgrade := func(target string) int {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Version", "13")
		req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
		resp, err := ts.app.Test(req, -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, upgrade("/api/ws"))
	assert.Equal(t, http.StatusUnauthorized, upgrade("/api/ws?token=garbage"))
}
