package statusapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmelin-systems/elevator-core/internal/domain"
	"github.com/harmelin-systems/elevator-core/internal/infra/statusapi"
)

type fakeSource struct {
	status domain.CabinStatus
}

func (f fakeSource) Snapshot() domain.CabinStatus { return f.status }

func TestHealthAndStatusEndpoints(t *testing.T) {
	source := fakeSource{status: domain.NewCabinStatus(domain.Floor(2), domain.DirectionUp, false, 1, nil, 0)}
	s := statusapi.New("127.0.0.1:18744", source, nil, statusapi.WithMetrics(true), statusapi.WithWebSocket(false))

	go func() { _ = s.ListenAndServe() }()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	}()

	var healthResp *http.Response
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:18744/health")
		if err != nil {
			return false
		}
		healthResp = resp
		return true
	}, time.Second, 10*time.Millisecond)
	defer healthResp.Body.Close()
	assert.Equal(t, http.StatusOK, healthResp.StatusCode)

	statusResp, err := http.Get("http://127.0.0.1:18744/status")
	require.NoError(t, err)
	defer statusResp.Body.Close()

	var got domain.CabinStatus
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&got))
	assert.Equal(t, domain.Floor(2), got.CurrentFloor)
	assert.Equal(t, 1, got.QueueDepth)

	metricsResp, err := http.Get("http://127.0.0.1:18744/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}

func TestWebSocketPushesSnapshot(t *testing.T) {
	source := fakeSource{status: domain.NewCabinStatus(domain.Floor(5), domain.DirectionDown, true, 2, nil, 1)}
	s := statusapi.New("127.0.0.1:18743", source, nil)

	go func() { _ = s.ListenAndServe() }()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	}()

	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		c, _, err := websocket.DefaultDialer.Dial("ws://127.0.0.1:18743/ws/status", nil)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, time.Second, 10*time.Millisecond)
	require.NotNil(t, conn)
	defer conn.Close()

	var got domain.CabinStatus
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, domain.Floor(5), got.CurrentFloor)
	assert.True(t, got.DoorOpen)

	var jsonCheck map[string]any
	b, err := json.Marshal(got)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &jsonCheck))
	assert.Contains(t, jsonCheck, "current_floor")
}
