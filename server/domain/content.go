package domain

import (
	"slices"
	"time"
)

type ContentKind int

const (
	ContentKindUnknown ContentKind = iota
	ContentKindFile
	ContentKindFolder
	ContentKindText
)

func (k ContentKind) String() string {
	switch k {
	case ContentKindFile:
		return "file"
	case ContentKindFolder:
		return "folder"
	case ContentKindText:
		return "text"
	default:
		return "unknown"
	}
}

// ParseContentKind maps a wire name onto a kind. An empty name is a file,
// matching clients that only ever shared files.
func ParseContentKind(s string) ContentKind {
	switch s {
	case "file", "File", "":
		return ContentKindFile
	case "folder", "Folder":
		return ContentKindFolder
	case "text", "TextMessage", "text_message":
		return ContentKindText
	default:
		return ContentKindUnknown
	}
}

// ContentItem is one shared unit. Hosts lists the sessions able to serve it
// in the order they became hosts; it is only populated on snapshots.
type ContentItem struct {
	ID          string
	Name        string
	Size        uint64
	Kind        ContentKind
	MimeType    string
	UploaderID  string
	TextContent string
	UploadedAt  time.Time
	Hosts       []string
}

func (c ContentItem) IsValid() bool {
	return c.ID != "" && c.Name != "" && c.Kind != ContentKindUnknown
}

func (c ContentItem) HasHost(sessionID string) bool {
	return slices.Contains(c.Hosts, sessionID)
}

func (c ContentItem) clone() ContentItem {
	c.Hosts = slices.Clone(c.Hosts)
	return c
}
