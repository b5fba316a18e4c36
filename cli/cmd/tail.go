/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ponyo877/lanshare/wire"
	"github.com/spf13/cobra"
)

var (
	follow    bool
	tailLines int
)

// tailCmd represents the tail command
var tailCmd = &cobra.Command{
	Use:   "tail [-f] [-n lines]",
	Short: "Displays the latest chat messages.",
	Long: `Displays the most recent chat messages held by the server.
With -f, stays connected and prints new messages as they arrive.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		if !follow {
			messages, err := apiClient.Messages(ctx, tailLines)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error getting messages: %v\n", err)
				return
			}
			for _, m := range messages {
				printMessage(os.Stdout, m)
			}
			return
		}

		session, backlog, err := joinSession(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error joining: %v\n", err)
			return
		}
		defer session.Close()
		go func() {
			<-ctx.Done()
			session.Close()
		}()

		for _, m := range backlog {
			if h, ok := m.(*wire.MessageHistory); ok {
				history := h.Messages
				if tailLines > 0 && len(history) > tailLines {
					history = history[len(history)-tailLines:]
				}
				for _, msg := range history {
					printMessage(os.Stdout, msg)
				}
			}
		}

		for {
			m, err := session.Receive()
			if err != nil {
				if ctx.Err() == nil {
					fmt.Fprintf(os.Stderr, "Connection closed: %v\n", err)
				}
				return
			}
			if t, ok := m.(*wire.TextMessage); ok && t.Message != nil {
				printMessage(os.Stdout, *t.Message)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(tailCmd)
	tailCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing messages as they arrive")
	tailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of messages to print")
}
