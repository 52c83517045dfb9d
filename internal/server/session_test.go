package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/protocol"
)

func TestRateLimiterBucket(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	limiter := newRateLimiter(mClock, 60)

	// A full bucket allows a burst of exactly perMinute messages.
	for i := 0; i < 60; i++ {
		assert.True(t, limiter.allow(), "message %d within the burst", i)
	}
	assert.False(t, limiter.allow(), "bucket must be empty after the burst")

	// One second refills one token at 60/min.
	mClock.Advance(time.Second)
	assert.True(t, limiter.allow())
	assert.False(t, limiter.allow())

	// The bucket never grows past its capacity.
	mClock.Advance(time.Hour)
	for i := 0; i < 60; i++ {
		assert.True(t, limiter.allow(), "refilled message %d", i)
	}
	assert.False(t, limiter.allow())
}

func TestHeartbeatRunsOnInjectedClock(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	// Read and write deadlines come off the injected clock; keep it in
	// step with the wall clock so the real connection honors them.
	mClock.Set(time.Now())
	trap := mClock.Trap().NewTicker("ping")
	defer trap.Close()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- c
	}))
	defer srv.Close()

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer peer.Close()

	sess := NewSession(<-conns, "g1", "hero", mClock, 60,
		log.New(io.Discard), NewMetrics(prometheus.NewRegistry()))
	sess.Bind(func(*Session, *protocol.ClientMessage) {}, func(*Session) {})
	go sess.Run()
	defer sess.Close()

	// Wait for the write pump to arm its ticker before advancing.
	trap.MustWait(ctx).MustRelease(ctx)

	pings := make(chan struct{}, 1)
	peer.SetPingHandler(func(string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return nil
	})
	go func() {
		for {
			if _, _, err := peer.ReadMessage(); err != nil {
				return
			}
		}
	}()

	mClock.Advance(pingInterval).MustWait(ctx)
	select {
	case <-pings:
	case <-time.After(5 * time.Second):
		t.Fatal("No heartbeat after the ping interval elapsed")
	}
}
