/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// idCmd represents the id command
var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Prints who this client is to the server.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		sessionID := viper.GetString(sessionIDKey)
		if sessionID == "" {
			sessionID = "(new on every connection)"
		}
		fmt.Printf("DisplayName: %s\n", viper.GetString(displayNameKey))
		fmt.Printf("SessionID:   %s\n", sessionID)
		fmt.Printf("Server:      %s\n", viper.GetString(serverAddressKey))
		fmt.Printf("Authorized:  %t\n", apiClient.Token() != "" || viper.GetString(accessCodeKey) == "")
	},
}

func init() {
	rootCmd.AddCommand(idCmd)
}
