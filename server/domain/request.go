package domain

// RequestType names the inbound variants a session can send.
type RequestType int

const (
	RequestUnknown RequestType = iota
	RequestJoin
	RequestUpload
	RequestDownload
	RequestDownloadCompleted
	RequestRevoke
	RequestPing
	RequestChat
	RequestOffer
	RequestAnswer
	RequestIceCandidate
	RequestChunk
	RequestMetadata
)

func (t RequestType) String() string {
	switch t {
	case RequestJoin:
		return "join"
	case RequestUpload:
		return "upload"
	case RequestDownload:
		return "request_download"
	case RequestDownloadCompleted:
		return "download_completed"
	case RequestRevoke:
		return "revoke"
	case RequestPing:
		return "ping"
	case RequestChat:
		return "chat"
	case RequestOffer:
		return "offer"
	case RequestAnswer:
		return "answer"
	case RequestIceCandidate:
		return "ice_candidate"
	case RequestChunk:
		return "chunk"
	case RequestMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Request is the closed set of inbound events. Only the types in this file
// implement it.
type Request interface {
	Type() RequestType
	IsValid() bool
	request()
}

type JoinRequest struct {
	SessionID string
	UserAgent string
	Remote    string
}

type UploadRequest struct {
	Item ContentItem
}

type DownloadRequest struct {
	ItemID      string
	RequesterID string
}

type DownloadCompletedRequest struct {
	ItemID       string
	DownloaderID string
}

type RevokeRequest struct {
	ItemID string
}

type PingRequest struct{}

type ChatRequest struct {
	SenderID   string
	SenderName string
	Content    string
}

// OfferRequest carries an SDP offer from the peer serving ItemID. TargetID is
// optional; without it the offer goes to another host of the item.
type OfferRequest struct {
	ItemID   string
	FromPeer string
	TargetID string
	SDP      string
}

// AnswerRequest carries an SDP answer. PeerID names the counterpart that
// made the offer.
type AnswerRequest struct {
	ItemID string
	PeerID string
	SDP    string
}

type IceCandidateRequest struct {
	ItemID    string
	PeerID    string
	Candidate string
}

type ChunkForwardRequest struct {
	ItemID      string
	ChunkIndex  uint32
	TotalChunks uint32
	Data        string
	TargetID    string
}

type MetadataForwardRequest struct {
	ItemID      string
	Name        string
	Size        uint64
	MimeType    string
	TotalChunks uint32
	TargetID    string
}

func (JoinRequest) Type() RequestType              { return RequestJoin }
func (UploadRequest) Type() RequestType            { return RequestUpload }
func (DownloadRequest) Type() RequestType          { return RequestDownload }
func (DownloadCompletedRequest) Type() RequestType { return RequestDownloadCompleted }
func (RevokeRequest) Type() RequestType            { return RequestRevoke }
func (PingRequest) Type() RequestType              { return RequestPing }
func (ChatRequest) Type() RequestType              { return RequestChat }
func (OfferRequest) Type() RequestType             { return RequestOffer }
func (AnswerRequest) Type() RequestType            { return RequestAnswer }
func (IceCandidateRequest) Type() RequestType      { return RequestIceCandidate }
func (ChunkForwardRequest) Type() RequestType      { return RequestChunk }
func (MetadataForwardRequest) Type() RequestType   { return RequestMetadata }

func (JoinRequest) request()              {}
func (UploadRequest) request()            {}
func (DownloadRequest) request()          {}
func (DownloadCompletedRequest) request() {}
func (RevokeRequest) request()            {}
func (PingRequest) request()              {}
func (ChatRequest) request()              {}
func (OfferRequest) request()             {}
func (AnswerRequest) request()            {}
func (IceCandidateRequest) request()      {}
func (ChunkForwardRequest) request()      {}
func (MetadataForwardRequest) request()   {}

// A join without a session ID is valid: the transport assigns one.
func (r JoinRequest) IsValid() bool              { return true }
func (r UploadRequest) IsValid() bool            { return r.Item.IsValid() }
func (r DownloadRequest) IsValid() bool          { return r.ItemID != "" }
func (r DownloadCompletedRequest) IsValid() bool { return r.ItemID != "" }
func (r RevokeRequest) IsValid() bool            { return r.ItemID != "" }
func (r PingRequest) IsValid() bool              { return true }
func (r ChatRequest) IsValid() bool              { return r.Content != "" }
func (r OfferRequest) IsValid() bool             { return r.ItemID != "" && r.SDP != "" }
func (r AnswerRequest) IsValid() bool            { return r.PeerID != "" && r.SDP != "" }
func (r IceCandidateRequest) IsValid() bool      { return r.PeerID != "" && r.Candidate != "" }

func (r ChunkForwardRequest) IsValid() bool {
	return r.ItemID != "" && r.TargetID != "" && r.ChunkIndex < r.TotalChunks
}

func (r MetadataForwardRequest) IsValid() bool {
	return r.ItemID != "" && r.TargetID != ""
}
