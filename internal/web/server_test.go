package web

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizkit/internal/domain"
	"vizkit/internal/logger"
)

type fakeIndicator struct{ frame domain.IndicatorFrame }

func (f *fakeIndicator) CurrentFrame() domain.IndicatorFrame { return f.frame }

type fakeVisualizer struct{ frame domain.BarFrame }

func (f *fakeVisualizer) CurrentFrame() domain.BarFrame { return f.frame }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	indicator := &fakeIndicator{frame: domain.IndicatorFrame{
		Angle:     180,
		Text:      "50%",
		Animating: true,
	}}
	visualizer := &fakeVisualizer{frame: domain.BarFrame{
		Bars: []domain.BarSample{{Amplitude: 40, Peak: 55}, {Amplitude: 10, Peak: 12}},
	}}

	srv := NewServer(logger.NewTestLogger(), "127.0.0.1:0", indicator, visualizer)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, srv.Shutdown(ctx))
	})

	return srv
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get("http://" + srv.Addr() + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, 180.0, snap.Indicator.Angle)
	assert.Equal(t, "50%", snap.Indicator.Text)
	require.Len(t, snap.Visualizer.Bars, 2)
	assert.Equal(t, 40, snap.Visualizer.Bars[0].Amplitude)
	assert.Equal(t, 55, snap.Visualizer.Bars[0].Peak)
}

func TestWebSocketStreamsFrames(t *testing.T) {
	srv := newTestServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 180.0, snap.Indicator.Angle)
	require.Len(t, snap.Visualizer.Bars, 2)
	assert.Equal(t, 10, snap.Visualizer.Bars[1].Amplitude)
}

func TestShutdownDisconnectsClients(t *testing.T) {
	indicator := &fakeIndicator{}
	visualizer := &fakeVisualizer{}
	srv := NewServer(logger.NewTestLogger(), "127.0.0.1:0", indicator, visualizer)
	require.NoError(t, srv.Start())

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	// Second shutdown is a no-op.
	require.NoError(t, srv.Shutdown(ctx))

	// The client's read fails once the server side goes away.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
