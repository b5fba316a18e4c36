package adaptor

import (
	"fmt"

	"github.com/ponyo877/lanshare/server/domain"
	"github.com/ponyo877/lanshare/wire"
)

func toContentType(kind domain.ContentKind) string {
	switch kind {
	case domain.ContentKindFolder:
		return wire.ContentTypeFolder
	case domain.ContentKindText:
		return wire.ContentTypeText
	default:
		return wire.ContentTypeFile
	}
}

func toFileInfo(item domain.ContentItem) wire.FileInfo {
	hosts := item.Hosts
	if hosts == nil {
		hosts = []string{}
	}
	return wire.FileInfo{
		ID:          item.ID,
		Name:        item.Name,
		Size:        item.Size,
		MimeType:    item.MimeType,
		UploaderID:  item.UploaderID,
		Hosts:       hosts,
		UploadedAt:  item.UploadedAt,
		ContentType: toContentType(item.Kind),
		TextContent: item.TextContent,
	}
}

func toFileInfos(items []domain.ContentItem) []wire.FileInfo {
	files := make([]wire.FileInfo, len(items))
	for i, item := range items {
		files[i] = toFileInfo(item)
	}
	return files
}

func toContentItem(file wire.FileInfo) domain.ContentItem {
	return domain.ContentItem{
		ID:          file.ID,
		Name:        file.Name,
		Size:        file.Size,
		Kind:        domain.ParseContentKind(file.ContentType),
		MimeType:    file.MimeType,
		UploaderID:  file.UploaderID,
		TextContent: file.TextContent,
		UploadedAt:  file.UploadedAt,
	}
}

func toPeerInfo(session domain.Session) wire.PeerInfo {
	return wire.PeerInfo{
		SessionID:   session.ID,
		ConnectedAt: session.JoinedAt,
		UserAgent:   session.UserAgent,
		RemoteAddr:  session.Remote,
	}
}

func toPeerInfos(sessions []domain.Session) []wire.PeerInfo {
	peers := make([]wire.PeerInfo, len(sessions))
	for i, session := range sessions {
		peers[i] = toPeerInfo(session)
	}
	return peers
}

func toChatMessage(message domain.ChatMessage) wire.ChatMessage {
	return wire.ChatMessage{
		ID:         message.ID,
		Content:    message.Content,
		SenderID:   message.SenderID,
		SenderName: message.SenderName,
		Timestamp:  message.CreatedAt,
	}
}

func toChatMessages(messages []domain.ChatMessage) []wire.ChatMessage {
	out := make([]wire.ChatMessage, len(messages))
	for i, message := range messages {
		out[i] = toChatMessage(message)
	}
	return out
}

// firstNonEmpty prefers an explicit target over the legacy peer field.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// toRequest converts a decoded client message. Join is resolved by the
// connection itself and never reaches here.
func toRequest(sessionID string, m wire.Message) (domain.Request, error) {
	switch in := m.(type) {
	case *wire.FileUpload:
		return domain.UploadRequest{Item: toContentItem(in.File)}, nil
	case *wire.RequestDownload:
		return domain.DownloadRequest{ItemID: in.FileID, RequesterID: in.SessionID}, nil
	case *wire.FileDownloaded:
		return domain.DownloadCompletedRequest{ItemID: in.FileID, DownloaderID: in.SessionID}, nil
	case *wire.RevokeFile:
		return domain.RevokeRequest{ItemID: in.FileID}, nil
	case *wire.Ping:
		return domain.PingRequest{}, nil
	case *wire.TextMessage:
		return domain.ChatRequest{SenderID: sessionID, SenderName: in.SenderName, Content: in.Content}, nil
	case *wire.Offer:
		return domain.OfferRequest{
			ItemID:   in.FileID,
			FromPeer: in.FromPeer,
			TargetID: in.TargetSessionID,
			SDP:      in.SDP,
		}, nil
	case *wire.Answer:
		return domain.AnswerRequest{
			ItemID: in.FileID,
			PeerID: firstNonEmpty(in.TargetSessionID, in.FromPeer),
			SDP:    in.SDP,
		}, nil
	case *wire.IceCandidate:
		return domain.IceCandidateRequest{
			ItemID:    in.FileID,
			PeerID:    firstNonEmpty(in.TargetSessionID, in.FromPeer),
			Candidate: in.Candidate,
		}, nil
	case *wire.FileChunk:
		return domain.ChunkForwardRequest{
			ItemID:      in.FileID,
			ChunkIndex:  in.ChunkIndex,
			TotalChunks: in.TotalChunks,
			Data:        in.Data,
			TargetID:    in.TargetSessionID,
		}, nil
	case *wire.FileMetadata:
		return domain.MetadataForwardRequest{
			ItemID:      in.FileID,
			Name:        in.FileName,
			Size:        in.FileSize,
			MimeType:    in.MimeType,
			TotalChunks: in.TotalChunks,
			TargetID:    in.TargetSessionID,
		}, nil
	default:
		return nil, fmt.Errorf("%s: %w", m.MessageType(), wire.ErrUnknownType)
	}
}

func toMessage(event domain.Event) (wire.Message, error) {
	switch e := event.(type) {
	case domain.PeerJoinedEvent:
		return &wire.PeerJoined{Peer: toPeerInfo(e.Peer), TotalPeers: e.TotalPeers}, nil
	case domain.PeerLeftEvent:
		return &wire.PeerLeft{SessionID: e.SessionID, TotalPeers: e.TotalPeers}, nil
	case domain.ContentListEvent:
		return &wire.FileListUpdate{Files: toFileInfos(e.Items)}, nil
	case domain.ContentRemovedEvent:
		return &wire.FileRemoved{FileID: e.ItemID}, nil
	case domain.DownloadRequestEvent:
		return &wire.DownloadRequest{
			FromSessionID:      e.HostID,
			FileID:             e.ItemID,
			RequesterSessionID: e.RequesterID,
		}, nil
	case domain.ChunkEvent:
		return &wire.FileChunk{
			FileID:          e.ItemID,
			ChunkIndex:      e.ChunkIndex,
			TotalChunks:     e.TotalChunks,
			Data:            e.Data,
			FromSessionID:   e.FromID,
			TargetSessionID: e.TargetID,
		}, nil
	case domain.MetadataEvent:
		return &wire.FileMetadata{
			FileID:          e.ItemID,
			FileName:        e.Name,
			FileSize:        e.Size,
			MimeType:        e.MimeType,
			TotalChunks:     e.TotalChunks,
			FromSessionID:   e.FromID,
			TargetSessionID: e.TargetID,
		}, nil
	case domain.ChatEvent:
		message := toChatMessage(e.Message)
		return &wire.TextMessage{Message: &message}, nil
	case domain.ChatHistoryEvent:
		return &wire.MessageHistory{Messages: toChatMessages(e.Messages)}, nil
	case domain.PongEvent:
		return &wire.Pong{}, nil
	case domain.ErrorEvent:
		return &wire.Error{Message: e.Message}, nil
	case domain.OfferEvent:
		return &wire.Offer{FileID: e.ItemID, FromPeer: e.FromPeer, SDP: e.SDP}, nil
	case domain.AnswerEvent:
		return &wire.Answer{FileID: e.ItemID, FromPeer: e.FromPeer, SDP: e.SDP}, nil
	case domain.IceCandidateEvent:
		return &wire.IceCandidate{FileID: e.ItemID, FromPeer: e.FromPeer, Candidate: e.Candidate}, nil
	default:
		return nil, fmt.Errorf("unsupported event %T", event)
	}
}
