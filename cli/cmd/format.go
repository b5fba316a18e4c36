package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ponyo877/lanshare/wire"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	folderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7571f9"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// styleName colors an item name by its kind, the way ls colors directories.
func styleName(contentType, name string) string {
	switch contentType {
	case wire.ContentTypeFolder:
		return folderStyle.Render(name)
	case wire.ContentTypeText:
		return textStyle.Render(name)
	default:
		return name
	}
}

// formatTime renders t like ls does: month, day and clock time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "           "
	}
	t = t.Local()
	return fmt.Sprintf("%s %2d %s", t.Format("Jan"), t.Day(), t.Format("15:04"))
}

func formatSize(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}

func kindLabel(contentType string) string {
	switch contentType {
	case wire.ContentTypeFolder:
		return "DIR "
	case wire.ContentTypeText:
		return "TEXT"
	default:
		return "FILE"
	}
}

func senderLabel(m wire.ChatMessage) string {
	if m.SenderName != "" {
		return m.SenderName
	}
	return shortID(m.SenderID)
}

func printMessage(w io.Writer, m wire.ChatMessage) {
	fmt.Fprintf(w, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04:05"), senderLabel(m), m.Content)
}
