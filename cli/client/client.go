// Package client talks to a lanshare server over its HTTP API and WebSocket
// endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ponyo877/lanshare/wire"
)

// DefaultMaxMessageBytes matches the server's default frame limit.
const DefaultMaxMessageBytes = 1 << 20

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrTooLarge     = errors.New("message too large")
)

type Client struct {
	// MaxMessageBytes caps the frames a Session sends; the server drops
	// anything larger.
	MaxMessageBytes int64

	baseURL *url.URL
	token   string
	http    *http.Client
}

// New accepts a bare host:port as well as an http(s) URL.
func New(server, token string) (*Client, error) {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", server, err)
	}
	return &Client{
		MaxMessageBytes: DefaultMaxMessageBytes,
		baseURL:         u,
		token:           token,
		http:            &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *Client) Token() string {
	return c.token
}

// Authenticate exchanges the access code for a token used on later calls.
func (c *Client) Authenticate(ctx context.Context, code string) error {
	body, err := json.Marshal(wire.AuthRequest{Code: code})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/auth", nil), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	defer resp.Body.Close()

	var res wire.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("%s: %w", res.Message, ErrUnauthorized)
	}
	c.token = res.Token
	return nil
}

func (c *Client) Peers(ctx context.Context) (wire.PeerStats, error) {
	var stats wire.PeerStats
	err := c.getJSON(ctx, "/api/peers", nil, &stats)
	return stats, err
}

func (c *Client) Stats(ctx context.Context) (wire.ServerStats, error) {
	var stats wire.ServerStats
	err := c.getJSON(ctx, "/api/stats", nil, &stats)
	return stats, err
}

func (c *Client) Files(ctx context.Context) ([]wire.FileInfo, error) {
	var files []wire.FileInfo
	err := c.getJSON(ctx, "/api/files", nil, &files)
	return files, err
}

func (c *Client) File(ctx context.Context, id string) (wire.FileInfo, error) {
	var file wire.FileInfo
	err := c.getJSON(ctx, "/api/files/"+url.PathEscape(id), nil, &file)
	return file, err
}

func (c *Client) Messages(ctx context.Context, limit int) ([]wire.ChatMessage, error) {
	var messages []wire.ChatMessage
	err := c.getJSON(ctx, "/api/messages", url.Values{"limit": {strconv.Itoa(limit)}}, &messages)
	return messages, err
}

// Search runs a regular expression over the server's chat archive.
func (c *Client) Search(ctx context.Context, pattern string, limit int) ([]wire.ChatMessage, error) {
	var messages []wire.ChatMessage
	query := url.Values{"pattern": {pattern}, "limit": {strconv.Itoa(limit)}}
	err := c.getJSON(ctx, "/api/messages", query, &messages)
	return messages, err
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) authHeader() http.Header {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	return header
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return err
	}
	req.Header = c.authHeader()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", path, ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	default:
		var res struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&res)
		return fmt.Errorf("%s: %s: %s", path, resp.Status, res.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Session is a joined WebSocket connection. Send may be called from any
// goroutine; Receive from one at a time.
type Session struct {
	ID       string
	conn     *websocket.Conn
	maxBytes int64
	mu       sync.Mutex
}

// Join dials the WebSocket endpoint and joins as sessionID, or as a fresh
// random ID when it is empty. The returned backlog holds what the server sent
// before announcing the session: the content list and chat history.
func (c *Client) Join(ctx context.Context, sessionID, userAgent string) (*Session, []wire.Message, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), c.authHeader())
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, nil, fmt.Errorf("websocket: %w", ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", u.String(), err)
	}
	s := &Session{ID: sessionID, conn: conn, maxBytes: c.MaxMessageBytes}
	if err := s.Send(&wire.Join{SessionID: sessionID, UserAgent: userAgent}); err != nil {
		conn.Close()
		return nil, nil, err
	}

	// Everything before our own peer_joined is the join backlog.
	var backlog []wire.Message
	for {
		m, err := s.Receive()
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		switch m := m.(type) {
		case *wire.Error:
			conn.Close()
			return nil, nil, fmt.Errorf("join rejected: %s", m.Message)
		case *wire.PeerJoined:
			if m.Peer.SessionID == sessionID {
				return s, backlog, nil
			}
		}
		backlog = append(backlog, m)
	}
}

func (s *Session) Send(m wire.Message) error {
	data, err := wire.Encode(wire.JSON, m)
	if err != nil {
		return err
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return fmt.Errorf("%s is %d bytes, limit %d: %w", m.MessageType(), len(data), s.maxBytes, ErrTooLarge)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", m.MessageType(), err)
	}
	return nil
}

func (s *Session) Receive() (wire.Message, error) {
	frameType, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	codec := wire.JSON
	if frameType == websocket.BinaryMessage {
		codec = wire.CBOR
	}
	return wire.DecodeServer(codec, data)
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.mu.Unlock()
	return s.conn.Close()
}
