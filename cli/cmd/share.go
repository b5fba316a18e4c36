package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ponyo877/lanshare/cli/client"
	"github.com/ponyo877/lanshare/wire"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var shareFile string

var shareCmd = &cobra.Command{
	Use:   "share [-f file] [text...]",
	Short: "Shares a text snippet until interrupted.",
	Long: `Advertises a text snippet to everyone on the server. The text comes from
the arguments, from the file given with -f, or from standard input.

The snippet stays listed while this command runs and is revoked on Ctrl+C.`,
	Run: func(cmd *cobra.Command, args []string) {
		name, text, err := shareContent(args, shareFile, cmd.InOrStdin())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading content: %v\n", err)
			return
		}
		if err := checkSnippetSize(text, viper.GetInt64(maxMessageKey)); err != nil {
			fmt.Fprintf(os.Stderr, "Error sharing %s: %v\n", name, err)
			return
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		session, _, err := joinSession(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error joining: %v\n", err)
			return
		}
		defer session.Close()

		item := wire.FileInfo{
			ID:          uuid.NewString(),
			Name:        name,
			Size:        uint64(len(text)),
			MimeType:    "text/plain",
			ContentType: wire.ContentTypeText,
			TextContent: text,
		}
		if err := session.Send(&wire.FileUpload{File: item}); err != nil {
			fmt.Fprintf(os.Stderr, "Error sharing: %v\n", err)
			return
		}
		fmt.Printf("Sharing %s as %s (Ctrl+C to stop)\n", item.Name, item.ID)

		received := make(chan wire.Message)
		go func() {
			defer close(received)
			for {
				m, err := session.Receive()
				if err != nil {
					return
				}
				select {
				case received <- m:
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				session.Send(&wire.RevokeFile{FileID: item.ID})
				fmt.Println("Stopped sharing", item.Name)
				return
			case m, ok := <-received:
				if !ok {
					fmt.Fprintln(os.Stderr, "Connection closed by server.")
					return
				}
				switch m := m.(type) {
				case *wire.DownloadRequest:
					if m.FileID == item.ID {
						fmt.Printf("Requested by %s\n", m.RequesterSessionID)
					}
				case *wire.Error:
					fmt.Fprintf(os.Stderr, "Server error: %s\n", m.Message)
				}
			}
		}
	},
}

// shareContent picks the snippet's name and text from its sources in order
// of precedence: a file, the arguments, then stdin.
func shareContent(args []string, file string, stdin io.Reader) (string, string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", "", err
		}
		return filepath.Base(file), string(data), nil
	case len(args) > 0:
		return "snippet.txt", strings.Join(args, " "), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", err
		}
		if len(data) == 0 {
			return "", "", fmt.Errorf("nothing to share")
		}
		return "stdin.txt", string(data), nil
	}
}

// checkSnippetSize rejects text that cannot fit in one frame. The frame also
// carries the item's metadata, so Send still enforces the exact limit.
func checkSnippetSize(text string, limit int64) error {
	if limit > 0 && int64(len(text)) > limit {
		return fmt.Errorf("%d bytes exceeds the %d byte message limit: %w", len(text), limit, client.ErrTooLarge)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(shareCmd)
	shareCmd.Flags().StringVarP(&shareFile, "file", "f", "", "Share the contents of this file")
}
