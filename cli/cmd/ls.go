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

var lsLong bool

// lsCmd represents the ls command
var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Lists content shared on the server.",
	Long: `Lists the files, folders and text snippets currently advertised on the
server. With -l, also prints the size, the number of hosts and the item ID.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		files, err := apiClient.Files(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing content: %v\n", err)
			return
		}
		if len(files) == 0 {
			fmt.Println("Nothing is shared right now.")
			return
		}

		for _, f := range files {
			if !lsLong {
				fmt.Printf("%-4s  %s %s\n", kindLabel(f.ContentType), formatTime(f.UploadedAt), styleName(f.ContentType, f.Name))
				continue
			}
			fmt.Printf("%-4s %7s %2d  %s %s  %s\n",
				kindLabel(f.ContentType),
				formatSize(f.Size),
				len(f.Hosts),
				formatTime(f.UploadedAt),
				styleName(f.ContentType, f.Name),
				infoStyle.Render(f.ID))
		}
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "Use a long listing format")
}
