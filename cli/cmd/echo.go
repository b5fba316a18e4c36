/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ponyo877/lanshare/wire"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// echoCmd represents the echo command
var echoCmd = &cobra.Command{
	Use:   "echo <text...>",
	Short: "Sends a chat message.",
	Long:  `Sends the given text to everyone connected to the server as a chat message.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text := strings.Join(args, " ")

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		session, _, err := joinSession(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error joining: %v\n", err)
			return
		}
		defer session.Close()
		go func() {
			<-ctx.Done()
			session.Close()
		}()

		err = session.Send(&wire.TextMessage{
			Content:    text,
			SenderName: viper.GetString(displayNameKey),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error sending message: %v\n", err)
			return
		}

		// Wait for our own message to come back so it is stored before we leave.
		for {
			m, err := session.Receive()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error waiting for delivery: %v\n", err)
				return
			}
			switch m := m.(type) {
			case *wire.TextMessage:
				if m.Message != nil && m.Message.SenderID == session.ID {
					return
				}
			case *wire.Error:
				fmt.Fprintf(os.Stderr, "Error sending message: %s\n", m.Message)
				return
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(echoCmd)
}
