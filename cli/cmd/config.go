/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [new_display_name]",
	Short: "Gets or sets the display name.",
	Long: `Manages the local configuration of the lanshare client.
If called without arguments, it displays the current configuration.
If called with an argument, it sets the display name and saves it to the
config file.`,
	Args: cobra.MaximumNArgs(1),
	// Reading and writing the config file needs no server.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Printf("Display Name: %s\n", viper.GetString(displayNameKey))
			fmt.Printf("Server:       %s\n", viper.GetString(serverAddressKey))
			if f := viper.ConfigFileUsed(); f != "" {
				fmt.Printf("Config File:  %s\n", f)
			}
			return
		}

		viper.Set(displayNameKey, args[0])
		if err := writeConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			return
		}
		fmt.Printf("Display name set to: %s\n", args[0])
	},
}

func writeConfig() error {
	if viper.ConfigFileUsed() != "" {
		return viper.WriteConfig()
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return viper.WriteConfigAs(filepath.Join(home, ".lanshare.yaml"))
}

func init() {
	rootCmd.AddCommand(configCmd)
}
