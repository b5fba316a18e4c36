package domain

// EventType names the outbound variants the server produces.
type EventType int

const (
	EventUnknown EventType = iota
	EventPeerJoined
	EventPeerLeft
	EventContentList
	EventContentRemoved
	EventDownloadRequest
	EventChunk
	EventMetadata
	EventChat
	EventChatHistory
	EventPong
	EventError
	EventOffer
	EventAnswer
	EventIceCandidate
)

func (t EventType) String() string {
	switch t {
	case EventPeerJoined:
		return "peer_joined"
	case EventPeerLeft:
		return "peer_left"
	case EventContentList:
		return "content_list"
	case EventContentRemoved:
		return "content_removed"
	case EventDownloadRequest:
		return "download_request"
	case EventChunk:
		return "chunk"
	case EventMetadata:
		return "metadata"
	case EventChat:
		return "chat"
	case EventChatHistory:
		return "chat_history"
	case EventPong:
		return "pong"
	case EventError:
		return "error"
	case EventOffer:
		return "offer"
	case EventAnswer:
		return "answer"
	case EventIceCandidate:
		return "ice_candidate"
	default:
		return "unknown"
	}
}

// Event is the closed set of outbound events.
type Event interface {
	Type() EventType
	event()
}

type PeerJoinedEvent struct {
	Peer       Session
	TotalPeers int
}

type PeerLeftEvent struct {
	SessionID  string
	TotalPeers int
}

type ContentListEvent struct {
	Items []ContentItem
}

type ContentRemovedEvent struct {
	ItemID string
}

// DownloadRequestEvent asks HostID to start serving ItemID to RequesterID.
type DownloadRequestEvent struct {
	HostID      string
	ItemID      string
	RequesterID string
}

type ChunkEvent struct {
	ItemID      string
	ChunkIndex  uint32
	TotalChunks uint32
	Data        string
	FromID      string
	TargetID    string
}

type MetadataEvent struct {
	ItemID      string
	Name        string
	Size        uint64
	MimeType    string
	TotalChunks uint32
	FromID      string
	TargetID    string
}

type ChatEvent struct {
	Message ChatMessage
}

type ChatHistoryEvent struct {
	Messages []ChatMessage
}

type PongEvent struct{}

type ErrorEvent struct {
	Message string
}

type OfferEvent struct {
	ItemID   string
	FromPeer string
	SDP      string
}

type AnswerEvent struct {
	ItemID   string
	FromPeer string
	SDP      string
}

type IceCandidateEvent struct {
	ItemID    string
	FromPeer  string
	Candidate string
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Message: message}
}

func (PeerJoinedEvent) Type() EventType      { return EventPeerJoined }
func (PeerLeftEvent) Type() EventType        { return EventPeerLeft }
func (ContentListEvent) Type() EventType     { return EventContentList }
func (ContentRemovedEvent) Type() EventType  { return EventContentRemoved }
func (DownloadRequestEvent) Type() EventType { return EventDownloadRequest }
func (ChunkEvent) Type() EventType           { return EventChunk }
func (MetadataEvent) Type() EventType        { return EventMetadata }
func (ChatEvent) Type() EventType            { return EventChat }
func (ChatHistoryEvent) Type() EventType     { return EventChatHistory }
func (PongEvent) Type() EventType            { return EventPong }
func (ErrorEvent) Type() EventType           { return EventError }
func (OfferEvent) Type() EventType           { return EventOffer }
func (AnswerEvent) Type() EventType          { return EventAnswer }
func (IceCandidateEvent) Type() EventType    { return EventIceCandidate }

func (PeerJoinedEvent) event()      {}
func (PeerLeftEvent) event()        {}
func (ContentListEvent) event()     {}
func (ContentRemovedEvent) event()  {}
func (DownloadRequestEvent) event() {}
func (ChunkEvent) event()           {}
func (MetadataEvent) event()        {}
func (ChatEvent) event()            {}
func (ChatHistoryEvent) event()     {}
func (PongEvent) event()            {}
func (ErrorEvent) event()           {}
func (OfferEvent) event()           {}
func (AnswerEvent) event()          {}
func (IceCandidateEvent) event()    {}
