package cmd

import (
	"testing"
	"time"

	"github.com/ponyo877/lanshare/wire"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
)

func TestWriteChatEvent(t *testing.T) {
	ts := time.Date(2025, time.March, 7, 9, 5, 3, 0, time.Local)
	w := tview.NewTextView().SetDynamicColors(true)

	writeChatEvent(w, "me", &wire.MessageHistory{Messages: []wire.ChatMessage{
		{Content: "earlier", SenderID: "peer", SenderName: "bob", Timestamp: ts},
	}})
	writeChatEvent(w, "me", &wire.PeerJoined{Peer: wire.PeerInfo{SessionID: "me"}, TotalPeers: 2})
	writeChatEvent(w, "me", &wire.PeerJoined{Peer: wire.PeerInfo{SessionID: "0123456789"}, TotalPeers: 3})
	writeChatEvent(w, "me", &wire.TextMessage{Message: &wire.ChatMessage{
		Content: "hello", SenderID: "me", SenderName: "alice", Timestamp: ts,
	}})
	writeChatEvent(w, "me", &wire.Pong{})
	writeChatEvent(w, "me", &wire.PeerLeft{SessionID: "0123456789", TotalPeers: 2})
	writeChatEvent(w, "me", &wire.Error{Message: "join required"})

	text := w.GetText(true)
	assert.Contains(t, text, "bob: earlier")
	assert.Contains(t, text, "01234567 joined (3 online)")
	assert.Contains(t, text, "alice: hello")
	assert.Contains(t, text, "01234567 left (2 online)")
	assert.Contains(t, text, "join required")
	assert.NotContains(t, text, "me joined")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "01234567", shortID("0123456789"))
}
