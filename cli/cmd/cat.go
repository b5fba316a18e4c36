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
)

// catCmd represents the cat command
var catCmd = &cobra.Command{
	Use:   "cat <item_id...>",
	Short: "Prints shared text snippets.",
	Long: `Prints the text of one or more shared text items. Files and folders are
transferred between browsers directly and cannot be printed here.`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: contentCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		for _, id := range args {
			f, err := apiClient.File(ctx, id)
			if err != nil {
				fmt.Fprintf(os.Stderr, "cat: %s: %v\n", id, err)
				continue
			}
			if f.ContentType != wire.ContentTypeText {
				fmt.Fprintf(os.Stderr, "cat: %s: %s is not a text item\n", id, f.Name)
				continue
			}
			fmt.Print(f.TextContent)
			if !strings.HasSuffix(f.TextContent, "\n") {
				fmt.Println()
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
