package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/ponyo877/lanshare/wire"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Starts a chat session in a tview-based interface",
	Long: `Starts a chat session with everyone on the server.
You can type messages at the bottom and see the chat history above.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		userName := viper.GetString(displayNameKey)
		if err := runChatUITview(userName); err != nil {
			fmt.Fprintf(os.Stderr, "Chat UI error: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChatUITview(userName string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, backlog, err := joinSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}
	defer session.Close()

	app := tview.NewApplication()

	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true).
		SetScrollable(true).
		ScrollToEnd()

	inputField := tview.NewInputField().
		SetLabel(userName + " ❯❯ ").
		SetFieldWidth(0).
		SetAcceptanceFunc(tview.InputFieldMaxLength(1024))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(textView, 0, 1, false).
		AddItem(inputField, 1, 0, true)

	app.SetRoot(flex, true).SetFocus(inputField)

	for _, m := range backlog {
		writeChatEvent(textView, session.ID, m)
	}
	fmt.Fprintf(textView, "[green]Connected as %s. (Ctrl+C to exit)\n", tview.Escape(userName))
	textView.ScrollToEnd()

	go func() {
		for {
			m, err := session.Receive()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				app.QueueUpdateDraw(func() {
					fmt.Fprintf(textView, "[red]Connection closed: %v\n", err)
				})
				return
			}
			app.QueueUpdateDraw(func() {
				writeChatEvent(textView, session.ID, m)
				textView.ScrollToEnd()
			})
		}
	}()

	inputField.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(inputField.GetText())
		if text == "" {
			return
		}
		if err := session.Send(&wire.TextMessage{Content: text, SenderName: userName}); err != nil {
			fmt.Fprintf(textView, "[red]Failed to send message: %v\n", err)
		}
		inputField.SetText("")
	})

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			cancel()
			app.Stop()
			return nil
		}
		return event
	})

	return app.Run()
}

// writeChatEvent renders the events a chat window cares about and ignores
// the rest.
func writeChatEvent(w *tview.TextView, self string, m wire.Message) {
	switch m := m.(type) {
	case *wire.MessageHistory:
		for _, msg := range m.Messages {
			writeChatMessage(w, self, msg)
		}
	case *wire.TextMessage:
		if m.Message != nil {
			writeChatMessage(w, self, *m.Message)
		}
	case *wire.PeerJoined:
		if m.Peer.SessionID != self {
			fmt.Fprintf(w, "[gray]%s joined (%d online)\n", shortID(m.Peer.SessionID), m.TotalPeers)
		}
	case *wire.PeerLeft:
		fmt.Fprintf(w, "[gray]%s left (%d online)\n", shortID(m.SessionID), m.TotalPeers)
	case *wire.Error:
		fmt.Fprintf(w, "[red]%s\n", tview.Escape(m.Message))
	}
}

func writeChatMessage(w *tview.TextView, self string, msg wire.ChatMessage) {
	color := "blue"
	if msg.SenderID == self {
		color = "yellow"
	}
	fmt.Fprintf(w, "[white][%s] [%s]%s[white]: %s\n",
		msg.Timestamp.Local().Format("15:04:05"),
		color,
		tview.Escape(senderLabel(msg)),
		tview.Escape(msg.Content))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
