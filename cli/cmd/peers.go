package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Lists the sessions connected to the server.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		stats, err := apiClient.Peers(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing peers: %v\n", err)
			return
		}
		fmt.Println(headerStyle.Render(fmt.Sprintf("total %d", stats.TotalPeers)))
		for _, p := range stats.Peers {
			fmt.Printf("%s  %-36s %-21s %s\n", formatTime(p.ConnectedAt), p.SessionID, p.RemoteAddr, infoStyle.Render(p.UserAgent))
		}
	},
}

func init() {
	rootCmd.AddCommand(peersCmd)
}
