// Package wire defines the messages exchanged with browsers and the CLI over
// the WebSocket endpoint. Every message is an object tagged by "type" with
// snake_case fields.
package wire

import "time"

const (
	TypeJoin            = "join"
	TypeFileUpload      = "file_upload"
	TypeRequestDownload = "request_download"
	TypeFileDownloaded  = "file_downloaded"
	TypeRevokeFile      = "revoke_file"
	TypeFileChunk       = "file_chunk"
	TypeFileMetadata    = "file_metadata"
	TypePing            = "ping"
	TypeTextMessage     = "text_message"
	TypeOffer           = "offer"
	TypeAnswer          = "answer"
	TypeIceCandidate    = "ice_candidate"

	TypePeerJoined      = "peer_joined"
	TypePeerLeft        = "peer_left"
	TypeFileListUpdate  = "file_list_update"
	TypeFileRemoved     = "file_removed"
	TypeDownloadRequest = "download_request"
	TypeMessageHistory  = "message_history"
	TypePong            = "pong"
	TypeError           = "error"
)

// Content types as browsers send them.
const (
	ContentTypeFile   = "File"
	ContentTypeFolder = "Folder"
	ContentTypeText   = "TextMessage"
)

// Header carries the type tag. Encode fills it in.
type Header struct {
	Type string `json:"type"`
}

func (h *Header) header() *Header { return h }

type Message interface {
	MessageType() string
	header() *Header
}

type PeerInfo struct {
	SessionID   string    `json:"session_id"`
	ConnectedAt time.Time `json:"connected_at"`
	UserAgent   string    `json:"user_agent,omitempty"`
	RemoteAddr  string    `json:"remote_addr,omitempty"`
}

type FileInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        uint64    `json:"size"`
	MimeType    string    `json:"mime_type"`
	UploaderID  string    `json:"uploader_id"`
	Hosts       []string  `json:"hosts"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ContentType string    `json:"content_type,omitempty"`
	TextContent string    `json:"text_content,omitempty"`
}

type ChatMessage struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Client to server.

type Join struct {
	Header
	SessionID string `json:"session_id,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

type FileUpload struct {
	Header
	SessionID string   `json:"session_id,omitempty"`
	File      FileInfo `json:"file"`
}

type RequestDownload struct {
	Header
	SessionID string `json:"session_id,omitempty"`
	FileID    string `json:"file_id"`
}

type FileDownloaded struct {
	Header
	SessionID string `json:"session_id,omitempty"`
	FileID    string `json:"file_id"`
}

type RevokeFile struct {
	Header
	SessionID string `json:"session_id,omitempty"`
	FileID    string `json:"file_id"`
}

type Ping struct {
	Header
	SessionID string `json:"session_id,omitempty"`
}

// Both directions.

// FileChunk is relayed verbatim; FromSessionID is set by the server.
type FileChunk struct {
	Header
	SessionID       string `json:"session_id,omitempty"`
	FileID          string `json:"file_id"`
	ChunkIndex      uint32 `json:"chunk_index"`
	TotalChunks     uint32 `json:"total_chunks"`
	Data            string `json:"data"`
	FromSessionID   string `json:"from_session_id,omitempty"`
	TargetSessionID string `json:"target_session_id"`
}

type FileMetadata struct {
	Header
	SessionID       string `json:"session_id,omitempty"`
	FileID          string `json:"file_id"`
	FileName        string `json:"file_name"`
	FileSize        uint64 `json:"file_size"`
	MimeType        string `json:"mime_type"`
	TotalChunks     uint32 `json:"total_chunks"`
	FromSessionID   string `json:"from_session_id,omitempty"`
	TargetSessionID string `json:"target_session_id"`
}

// TextMessage carries Content and SenderName from a client, and the stored
// Message from the server.
type TextMessage struct {
	Header
	SessionID  string       `json:"session_id,omitempty"`
	Content    string       `json:"content,omitempty"`
	SenderName string       `json:"sender_name,omitempty"`
	Message    *ChatMessage `json:"message,omitempty"`
}

// Offer is addressed to TargetSessionID when set, otherwise to another host
// of FileID. FromPeer names the sender on the way out.
type Offer struct {
	Header
	FileID          string `json:"file_id"`
	FromPeer        string `json:"from_peer,omitempty"`
	TargetSessionID string `json:"target_session_id,omitempty"`
	SDP             string `json:"sdp"`
}

// Answer names its addressee in FromPeer on the way in and its sender on the
// way out. TargetSessionID takes precedence when a client sets it.
type Answer struct {
	Header
	FileID          string `json:"file_id"`
	FromPeer        string `json:"from_peer"`
	TargetSessionID string `json:"target_session_id,omitempty"`
	SDP             string `json:"sdp"`
}

type IceCandidate struct {
	Header
	FileID          string `json:"file_id"`
	FromPeer        string `json:"from_peer"`
	TargetSessionID string `json:"target_session_id,omitempty"`
	Candidate       string `json:"candidate"`
}

// Server to client.

type PeerJoined struct {
	Header
	Peer       PeerInfo `json:"peer"`
	TotalPeers int      `json:"total_peers"`
}

type PeerLeft struct {
	Header
	SessionID  string `json:"session_id"`
	TotalPeers int    `json:"total_peers"`
}

type FileListUpdate struct {
	Header
	Files []FileInfo `json:"files"`
}

type FileRemoved struct {
	Header
	FileID string `json:"file_id"`
}

type DownloadRequest struct {
	Header
	FromSessionID      string `json:"from_session_id"`
	FileID             string `json:"file_id"`
	RequesterSessionID string `json:"requester_session_id"`
}

type MessageHistory struct {
	Header
	Messages []ChatMessage `json:"messages"`
}

type Pong struct {
	Header
}

type Error struct {
	Header
	Message string `json:"message"`
}

func (*Join) MessageType() string            { return TypeJoin }
func (*FileUpload) MessageType() string      { return TypeFileUpload }
func (*RequestDownload) MessageType() string { return TypeRequestDownload }
func (*FileDownloaded) MessageType() string  { return TypeFileDownloaded }
func (*RevokeFile) MessageType() string      { return TypeRevokeFile }
func (*Ping) MessageType() string            { return TypePing }
func (*FileChunk) MessageType() string       { return TypeFileChunk }
func (*FileMetadata) MessageType() string    { return TypeFileMetadata }
func (*TextMessage) MessageType() string     { return TypeTextMessage }
func (*Offer) MessageType() string           { return TypeOffer }
func (*Answer) MessageType() string          { return TypeAnswer }
func (*IceCandidate) MessageType() string    { return TypeIceCandidate }
func (*PeerJoined) MessageType() string      { return TypePeerJoined }
func (*PeerLeft) MessageType() string        { return TypePeerLeft }
func (*FileListUpdate) MessageType() string  { return TypeFileListUpdate }
func (*FileRemoved) MessageType() string     { return TypeFileRemoved }
func (*DownloadRequest) MessageType() string { return TypeDownloadRequest }
func (*MessageHistory) MessageType() string  { return TypeMessageHistory }
func (*Pong) MessageType() string            { return TypePong }
func (*Error) MessageType() string           { return TypeError }

var clientMessages = map[string]func() Message{
	TypeJoin:            func() Message { return &Join{} },
	TypeFileUpload:      func() Message { return &FileUpload{} },
	TypeRequestDownload: func() Message { return &RequestDownload{} },
	TypeFileDownloaded:  func() Message { return &FileDownloaded{} },
	TypeRevokeFile:      func() Message { return &RevokeFile{} },
	TypePing:            func() Message { return &Ping{} },
	TypeFileChunk:       func() Message { return &FileChunk{} },
	TypeFileMetadata:    func() Message { return &FileMetadata{} },
	TypeTextMessage:     func() Message { return &TextMessage{} },
	TypeOffer:           func() Message { return &Offer{} },
	TypeAnswer:          func() Message { return &Answer{} },
	TypeIceCandidate:    func() Message { return &IceCandidate{} },
}

var serverMessages = map[string]func() Message{
	TypePeerJoined:      func() Message { return &PeerJoined{} },
	TypePeerLeft:        func() Message { return &PeerLeft{} },
	TypeFileListUpdate:  func() Message { return &FileListUpdate{} },
	TypeFileRemoved:     func() Message { return &FileRemoved{} },
	TypeDownloadRequest: func() Message { return &DownloadRequest{} },
	TypeFileChunk:       func() Message { return &FileChunk{} },
	TypeFileMetadata:    func() Message { return &FileMetadata{} },
	TypeTextMessage:     func() Message { return &TextMessage{} },
	TypeMessageHistory:  func() Message { return &MessageHistory{} },
	TypePong:            func() Message { return &Pong{} },
	TypeError:           func() Message { return &Error{} },
	TypeOffer:           func() Message { return &Offer{} },
	TypeAnswer:          func() Message { return &Answer{} },
	TypeIceCandidate:    func() Message { return &IceCandidate{} },
}
