package server

import (
	"bufio"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pouchkv/pouch/internal/config"
	"github.com/pouchkv/pouch/internal/engine"
	"github.com/pouchkv/pouch/pkg/command"
	"github.com/pouchkv/pouch/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingJournal struct{}

func (failingJournal) Append(command.Command) error { return errors.New("disk full") }

func newTestServer(journal engine.Journal) *Server {
	cfg := config.Default()
	return New(zap.NewNop(), engine.New(zap.NewNop()), journal, &cfg)
}

func decodeResp(t *testing.T, data []byte) response.Response {
	t.Helper()
	r, err := response.Decode(data)
	require.NoError(t, err)
	return r
}

func TestDispatchRoundTrip(t *testing.T) {
	s := newTestServer(nil)

	resp, fatal := s.dispatch("c1", []byte(`{"action":"SET","key":"k","value":"v","expiry_seconds":0,"expiry_ts":0}`))
	require.NoError(t, fatal)
	assert.Equal(t, response.AffectedKeys{AffectedKeys: 1}, decodeResp(t, resp))

	resp, fatal = s.dispatch("c1", []byte(`{"action":"GET","key":"k"}`))
	require.NoError(t, fatal)
	assert.Equal(t, response.StringValue{Value: "v"}, decodeResp(t, resp))
}

func TestDispatchUndecodableFrame(t *testing.T) {
	s := newTestServer(nil)

	for _, frame := range []string{
		"not json",
		`{"action":"NUKE","key":"k"}`,
		`{"key":"k"}`,
	} {
		resp, fatal := s.dispatch("c1", []byte(frame))
		require.NoError(t, fatal, frame)
		assert.Equal(t, response.Err{Error: response.ErrUnknownCommand}, decodeResp(t, resp), frame)
	}
}

func TestDispatchJournalFailureIsFatal(t *testing.T) {
	s := newTestServer(failingJournal{})

	resp, fatal := s.dispatch("c1", []byte(`{"action":"SET","key":"k","value":"v","expiry_seconds":0,"expiry_ts":0}`))
	require.Error(t, fatal)
	assert.Equal(t, response.Err{Error: response.ErrIOFailure}, decodeResp(t, resp))

	// Reads bypass the journal, so they stay serviceable.
	resp, fatal = s.dispatch("c1", []byte(`{"action":"EXISTS","key":"k"}`))
	require.NoError(t, fatal)
	assert.Equal(t, response.BoolValue{Value: false}, decodeResp(t, resp))
}

func TestTCPConnLoop(t *testing.T) {
	s := newTestServer(nil)
	client, srvConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleTCPConn(srvConn)
	}()
	t.Cleanup(func() { client.Close(); <-done })

	reader := bufio.NewReader(client)
	send := func(frame string) response.Response {
		t.Helper()
		_, err := client.Write([]byte(frame))
		require.NoError(t, err)
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		return decodeResp(t, []byte(strings.TrimSuffix(line, "\n")))
	}

	assert.Equal(t, response.AffectedKeys{AffectedKeys: 1},
		send(`{"action":"SET","key":"k","value":"v","expiry_seconds":0,"expiry_ts":0}`))
	assert.Equal(t, response.StringValue{Value: "v"},
		send(`{"action":"GET","key":"k"}`))
	assert.Equal(t, response.Err{Error: response.ErrUnknownKey},
		send(`{"action":"GET","key":"missing"}`))
}

func TestTCPConnClosesOnJournalFailure(t *testing.T) {
	s := newTestServer(failingJournal{})
	client, srvConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleTCPConn(srvConn)
	}()
	t.Cleanup(func() { client.Close() })

	reader := bufio.NewReader(client)
	_, err := client.Write([]byte(`{"action":"INCR","key":"n"}`))
	require.NoError(t, err)

	// The failure response still arrives, then the server side hangs
	// up.
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, response.Err{Error: response.ErrIOFailure},
		decodeResp(t, []byte(strings.TrimSuffix(line, "\n"))))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("connection not torn down after journal failure")
	}
	_, err = reader.ReadByte()
	assert.Error(t, err)
}

func TestWebSocketMessageLoop(t *testing.T) {
	s := newTestServer(nil)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/ws", s.handleWS)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { ws.Close() })

	send := func(frame string) response.Response {
		t.Helper()
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(frame)))
		_, msg, err := ws.ReadMessage()
		require.NoError(t, err)
		return decodeResp(t, msg)
	}

	assert.Equal(t, response.AffectedKeys{AffectedKeys: 2},
		send(`{"action":"SADD","key":"s","values":["a","b"]}`))
	assert.Equal(t, response.Count{Count: 2},
		send(`{"action":"SCARD","key":"s"}`))
	assert.Equal(t, response.Err{Error: response.ErrUnknownCommand},
		send(`garbage`))
}
