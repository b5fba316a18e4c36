/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var grepLimit int

// grepCmd represents the grep command
var grepCmd = &cobra.Command{
	Use:   "grep <pattern>",
	Short: "Searches the chat archive.",
	Long: `Searches the server's chat archive with a regular expression and prints
the newest matches, oldest first.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		messages, err := apiClient.Search(ctx, args[0], grepLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error searching for '%s': %v\n", args[0], err)
			return
		}
		for _, m := range messages {
			printMessage(os.Stdout, m)
		}
	},
}

func init() {
	rootCmd.AddCommand(grepCmd)
	grepCmd.Flags().IntVarP(&grepLimit, "max-count", "m", 100, "Maximum number of matches")
}
