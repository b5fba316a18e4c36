package adaptor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ponyo877/lanshare/server/domain"
	"github.com/ponyo877/lanshare/server/metrics"
	"github.com/ponyo877/lanshare/server/repository"
	"github.com/ponyo877/lanshare/server/usecase"
	"github.com/ponyo877/lanshare/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	srv   *httptest.Server
	state *domain.State
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	// Connection goroutines may outlive the test, so they get a no-op logger.
	logger := zap.NewNop()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	db, err := repository.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	repo := repository.NewRepository(db, 0)

	state := domain.NewState(10, domain.NewBroadcaster(64))
	dispatcher := usecase.NewDispatcher(state, logger, usecase.WithRepository(repo), usecase.WithMetrics(m))
	uc := usecase.NewUsecase(state, repo)
	opts.Gatherer = reg
	a := NewAdaptor(uc, dispatcher, state.Broadcaster, opts, logger, m)

	srv := httptest.NewServer(a.Routes())
	t.Cleanup(func() {
		srv.Close()
		db.Close()
	})
	return &testServer{srv: srv, state: state}
}

func (s *testServer) dial(t *testing.T, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (s *testServer) get(t *testing.T, path string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.srv.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

// readUntil skips server messages until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) wire.Message {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		frameType, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", typ)
		codec := wire.JSON
		if frameType == websocket.BinaryMessage {
			codec = wire.CBOR
		}
		m, err := wire.DecodeServer(codec, data)
		require.NoError(t, err)
		if m.MessageType() == typ {
			return m
		}
	}
}

func join(t *testing.T, conn *websocket.Conn, sessionID string) {
	t.Helper()
	send(t, conn, map[string]any{"type": "join", "session_id": sessionID, "user_agent": "test"})
	for {
		joined := readUntil(t, conn, wire.TypePeerJoined).(*wire.PeerJoined)
		if joined.Peer.SessionID == sessionID {
			return
		}
	}
}

func upload(id string) map[string]any {
	return map[string]any{
		"type": "file_upload",
		"file": map[string]any{
			"id":        id,
			"name":      id + ".bin",
			"size":      10,
			"mime_type": "application/octet-stream",
		},
	}
}

func TestWebSocket_UploadAndDownloadRouting(t *testing.T) {
	s := newTestServer(t, Options{})
	c1 := s.dial(t, nil)
	join(t, c1, "p1")

	send(t, c1, upload("f1"))
	list := readUntil(t, c1, wire.TypeFileListUpdate).(*wire.FileListUpdate)
	require.Len(t, list.Files, 1)
	assert.Equal(t, "f1", list.Files[0].ID)
	assert.Equal(t, []string{"p1"}, list.Files[0].Hosts)
	assert.Equal(t, wire.ContentTypeFile, list.Files[0].ContentType)

	c2 := s.dial(t, nil)
	join(t, c2, "p2")
	send(t, c2, map[string]any{"type": "request_download", "session_id": "p2", "file_id": "f1"})

	routed := readUntil(t, c1, wire.TypeDownloadRequest).(*wire.DownloadRequest)
	assert.Equal(t, "p1", routed.FromSessionID)
	assert.Equal(t, "f1", routed.FileID)
	assert.Equal(t, "p2", routed.RequesterSessionID)

	send(t, c2, map[string]any{"type": "file_downloaded", "file_id": "f1"})
	for {
		list = readUntil(t, c1, wire.TypeFileListUpdate).(*wire.FileListUpdate)
		if len(list.Files) == 1 && len(list.Files[0].Hosts) == 2 {
			break
		}
	}
	assert.ElementsMatch(t, []string{"p1", "p2"}, list.Files[0].Hosts)
}

func TestWebSocket_SignalingRelay(t *testing.T) {
	s := newTestServer(t, Options{})
	c1 := s.dial(t, nil)
	join(t, c1, "p1")
	c2 := s.dial(t, nil)
	join(t, c2, "p2")

	send(t, c1, map[string]any{"type": "offer", "file_id": "f1", "target_session_id": "p2", "sdp": "offer-sdp"})
	offer := readUntil(t, c2, wire.TypeOffer).(*wire.Offer)
	assert.Equal(t, "p1", offer.FromPeer)
	assert.Equal(t, "offer-sdp", offer.SDP)

	send(t, c2, map[string]any{"type": "answer", "file_id": "f1", "from_peer": "p1", "sdp": "answer-sdp"})
	answer := readUntil(t, c1, wire.TypeAnswer).(*wire.Answer)
	assert.Equal(t, "p2", answer.FromPeer)
	assert.Equal(t, "answer-sdp", answer.SDP)

	send(t, c1, map[string]any{
		"type": "file_chunk", "file_id": "f1", "chunk_index": 0, "total_chunks": 1, "data": "QUJD", "target_session_id": "p2",
	})
	chunk := readUntil(t, c2, wire.TypeFileChunk).(*wire.FileChunk)
	assert.Equal(t, "p1", chunk.FromSessionID)
	assert.Equal(t, "QUJD", chunk.Data)
}

func TestWebSocket_GeneratedSessionID(t *testing.T) {
	s := newTestServer(t, Options{})
	c := s.dial(t, nil)

	send(t, c, map[string]any{"type": "join"})
	joined := readUntil(t, c, wire.TypePeerJoined).(*wire.PeerJoined)
	_, err := uuid.Parse(joined.Peer.SessionID)
	assert.NoError(t, err)
	assert.NotEmpty(t, joined.Peer.UserAgent)
}

func TestWebSocket_JoinRequired(t *testing.T) {
	s := newTestServer(t, Options{})
	c := s.dial(t, nil)

	send(t, c, map[string]any{"type": "ping"})
	notice := readUntil(t, c, wire.TypeError).(*wire.Error)
	assert.Equal(t, "join required", notice.Message)

	join(t, c, "p1")
	send(t, c, map[string]any{"type": "ping"})
	readUntil(t, c, wire.TypePong)
}

func TestWebSocket_MalformedFrameKeepsConnection(t *testing.T) {
	s := newTestServer(t, Options{})
	c := s.dial(t, nil)
	join(t, c, "p1")

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("not json")))
	notice := readUntil(t, c, wire.TypeError).(*wire.Error)
	assert.Equal(t, "malformed message", notice.Message)

	send(t, c, map[string]any{"type": "teleport"})
	notice = readUntil(t, c, wire.TypeError).(*wire.Error)
	assert.Contains(t, notice.Message, "unknown message type")

	send(t, c, map[string]any{"type": "ping"})
	readUntil(t, c, wire.TypePong)
}

func TestWebSocket_FrameTooLarge(t *testing.T) {
	s := newTestServer(t, Options{MaxMessageBytes: 128})
	c := s.dial(t, nil)
	join(t, c, "p1")

	big := map[string]any{"type": "text_message", "content": strings.Repeat("x", 1024)}
	send(t, c, big)
	notice := readUntil(t, c, wire.TypeError).(*wire.Error)
	assert.Equal(t, "message too large", notice.Message)
	assert.Equal(t, 0, s.state.Messages.Len())

	send(t, c, map[string]any{"type": "ping"})
	readUntil(t, c, wire.TypePong)
}

func TestWebSocket_DuplicateSessionRejected(t *testing.T) {
	s := newTestServer(t, Options{})
	c1 := s.dial(t, nil)
	join(t, c1, "p1")

	c2 := s.dial(t, nil)
	send(t, c2, map[string]any{"type": "join", "session_id": "p1"})
	notice := readUntil(t, c2, wire.TypeError).(*wire.Error)
	assert.Equal(t, "session already joined", notice.Message)
	assert.Equal(t, 1, s.state.Sessions.Count())

	send(t, c1, map[string]any{"type": "ping"})
	readUntil(t, c1, wire.TypePong)
}

func TestWebSocket_DisconnectCleansUp(t *testing.T) {
	s := newTestServer(t, Options{})
	c1 := s.dial(t, nil)
	join(t, c1, "p1")
	send(t, c1, upload("f1"))
	readUntil(t, c1, wire.TypeFileListUpdate)

	c2 := s.dial(t, nil)
	join(t, c2, "p2")
	require.NoError(t, c1.Close())

	left := readUntil(t, c2, wire.TypePeerLeft).(*wire.PeerLeft)
	assert.Equal(t, "p1", left.SessionID)
	assert.Equal(t, 1, left.TotalPeers)
	removed := readUntil(t, c2, wire.TypeFileRemoved).(*wire.FileRemoved)
	assert.Equal(t, "f1", removed.FileID)
	list := readUntil(t, c2, wire.TypeFileListUpdate).(*wire.FileListUpdate)
	assert.Empty(t, list.Files)
}

func TestWebSocket_BinaryFramesUseCBOR(t *testing.T) {
	s := newTestServer(t, Options{})
	c := s.dial(t, nil)

	data, err := wire.Encode(wire.CBOR, &wire.Join{SessionID: "p1"})
	require.NoError(t, err)
	require.NoError(t, c.WriteMessage(websocket.BinaryMessage, data))

	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	frameType, payload, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, frameType)
	m, err := wire.DecodeServer(wire.CBOR, payload)
	require.NoError(t, err)
	assert.Equal(t, wire.TypeFileListUpdate, m.MessageType())

	joined := readUntil(t, c, wire.TypePeerJoined).(*wire.PeerJoined)
	assert.Equal(t, "p1", joined.Peer.SessionID)
}

func TestWebSocket_ChatHistoryAndArchive(t *testing.T) {
	s := newTestServer(t, Options{})
	c1 := s.dial(t, nil)
	join(t, c1, "p1")

	send(t, c1, map[string]any{"type": "text_message", "content": "hello lan", "sender_name": "alice"})
	chat := readUntil(t, c1, wire.TypeTextMessage).(*wire.TextMessage)
	require.NotNil(t, chat.Message)
	assert.Equal(t, "hello lan", chat.Message.Content)
	assert.Equal(t, "p1", chat.Message.SenderID)
	// The pong proves the chat request, archive write included, has finished.
	send(t, c1, map[string]any{"type": "ping"})
	readUntil(t, c1, wire.TypePong)

	c2 := s.dial(t, nil)
	send(t, c2, map[string]any{"type": "join", "session_id": "p2"})
	history := readUntil(t, c2, wire.TypeMessageHistory).(*wire.MessageHistory)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "alice", history.Messages[0].SenderName)

	var recent []wire.ChatMessage
	decodeBody(t, s.get(t, "/api/messages?limit=5", nil), &recent)
	require.Len(t, recent, 1)
	assert.Equal(t, chat.Message.ID, recent[0].ID)

	var found []wire.ChatMessage
	decodeBody(t, s.get(t, "/api/messages?pattern=%5Ehello", nil), &found)
	require.Len(t, found, 1)
	assert.Equal(t, "hello lan", found[0].Content)

	resp := s.get(t, "/api/messages?pattern=%28", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTP_PeersAndFiles(t *testing.T) {
	s := newTestServer(t, Options{})
	c := s.dial(t, nil)
	join(t, c, "p1")
	send(t, c, upload("f1"))
	readUntil(t, c, wire.TypeFileListUpdate)

	var peers wire.PeerStats
	decodeBody(t, s.get(t, "/api/peers", nil), &peers)
	assert.Equal(t, 1, peers.TotalPeers)
	require.Len(t, peers.Peers, 1)
	assert.Equal(t, "p1", peers.Peers[0].SessionID)

	var files []wire.FileInfo
	decodeBody(t, s.get(t, "/api/files", nil), &files)
	require.Len(t, files, 1)

	var file wire.FileInfo
	decodeBody(t, s.get(t, "/api/files/f1", nil), &file)
	assert.Equal(t, "f1.bin", file.Name)

	resp := s.get(t, "/api/files/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var stats wire.ServerStats
	decodeBody(t, s.get(t, "/api/stats", nil), &stats)
	assert.Equal(t, 1, stats.Sessions)
	assert.Equal(t, 1, stats.Contents)
}

func TestHTTP_AccessCode(t *testing.T) {
	s := newTestServer(t, Options{AccessCode: "1234"})

	assert.Equal(t, http.StatusOK, s.get(t, "/healthz", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, s.get(t, "/api/peers", nil).StatusCode)

	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	post := func(code string) *http.Response {
		resp, err := http.Post(s.srv.URL+"/api/auth", "application/json", strings.NewReader(`{"code":"`+code+`"}`))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	rejected := post("nope")
	assert.Equal(t, http.StatusUnauthorized, rejected.StatusCode)
	var body wire.AuthResponse
	decodeBody(t, rejected, &body)
	assert.False(t, body.Success)

	accepted := post("1234")
	require.Equal(t, http.StatusOK, accepted.StatusCode)
	decodeBody(t, accepted, &body)
	require.True(t, body.Success)
	require.NotEmpty(t, body.Token)

	var cookie *http.Cookie
	for _, c := range accepted.Cookies() {
		if c.Name == tokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, body.Token, cookie.Value)

	bearer := http.Header{"Authorization": []string{"Bearer " + body.Token}}
	assert.Equal(t, http.StatusOK, s.get(t, "/api/peers", bearer).StatusCode)
	cookieHeader := http.Header{"Cookie": []string{tokenCookie + "=" + body.Token}}
	assert.Equal(t, http.StatusOK, s.get(t, "/api/files", cookieHeader).StatusCode)

	c := s.dial(t, bearer)
	join(t, c, "p1")
}

func TestHTTP_AuthWithoutCode(t *testing.T) {
	s := newTestServer(t, Options{})

	resp, err := http.Post(s.srv.URL+"/api/auth", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body wire.AuthResponse
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
}

func TestHTTP_Metrics(t *testing.T) {
	s := newTestServer(t, Options{})
	c := s.dial(t, nil)
	join(t, c, "p1")

	resp := s.get(t, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "lanshare_sessions 1")
}

func TestHTTP_ForwardedAddressNeedsTrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		want       func(t *testing.T, remote string)
	}{
		{
			name: "ignored by default",
			want: func(t *testing.T, remote string) {
				assert.NotEqual(t, "10.9.9.9", remote)
				assert.True(t, strings.HasPrefix(remote, "127.0.0.1:"), remote)
			},
		},
		{
			name:       "honored behind a proxy",
			trustProxy: true,
			want: func(t *testing.T, remote string) {
				assert.Equal(t, "10.9.9.9", remote)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Options{TrustProxy: tt.trustProxy})
			c := s.dial(t, http.Header{"X-Real-Ip": []string{"10.9.9.9"}})
			join(t, c, "p1")

			var peers wire.PeerStats
			decodeBody(t, s.get(t, "/api/peers", nil), &peers)
			require.Len(t, peers.Peers, 1)
			tt.want(t, peers.Peers[0].RemoteAddr)
		})
	}
}
