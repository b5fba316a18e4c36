/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-shellwords"
	"github.com/ponyo877/lanshare/cli/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	apiClient *client.Client
)

const (
	serverAddressKey = "server_address"
	accessCodeKey    = "access_code"
	displayNameKey   = "display_name"
	sessionIDKey     = "session_id"
	maxMessageKey    = "max_message_bytes"

	requestTimeout = 10 * time.Second
	userAgent      = "lanshare-cli"
)

var rootCmd = &cobra.Command{
	Use:   "lanshare",
	Short: "Command line client for a lanshare server",
	Long: `lanshare talks to a lanshare server on the local network.
It lists shared content and peers, shares text, and chats with the
browsers connected to the same server.

Run without arguments to enter interactive mode.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if apiClient != nil {
			return nil
		}
		c, err := client.New(viper.GetString(serverAddressKey), "")
		if err != nil {
			return err
		}
		c.MaxMessageBytes = viper.GetInt64(maxMessageKey)
		if code := viper.GetString(accessCodeKey); code != "" {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			if err := c.Authenticate(ctx, code); err != nil {
				return err
			}
		}
		apiClient = c
		return nil
	},
}

// Execute runs a single command when arguments are given and the REPL
// otherwise.
func Execute() {
	if len(os.Args) > 1 {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	fmt.Println("entering interactive mode, type 'exit' to quit")
	p := prompt.New(executeLine, completeLine,
		prompt.OptionPrefix("❯❯❯ "),
		prompt.OptionTitle("lanshare"),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			in = strings.TrimSpace(in)
			return breakline && (in == "exit" || in == "quit")
		}),
	)
	p.Run()
}

func executeLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" || line == "exit" || line == "quit" {
		return
	}
	args, err := shellwords.Parse(line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing input: %v\n", err)
		return
	}
	rootCmd.SetArgs(args)
	// cobra already printed the error.
	rootCmd.Execute()
	resetFlags(rootCmd)
}

// resetFlags restores local flag defaults so one REPL line does not leak into
// the next.
func resetFlags(cmd *cobra.Command) {
	for _, c := range cmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				f.Value.Set(f.DefValue)
				f.Changed = false
			}
		})
		resetFlags(c)
	}
}

func completeLine(d prompt.Document) []prompt.Suggest {
	words := strings.Fields(d.TextBeforeCursor())
	if len(words) > 1 || (len(words) == 1 && strings.HasSuffix(d.TextBeforeCursor(), " ")) {
		return nil
	}
	var suggests []prompt.Suggest
	for _, c := range rootCmd.Commands() {
		if c.Hidden || !c.IsAvailableCommand() {
			continue
		}
		suggests = append(suggests, prompt.Suggest{Text: c.Name(), Description: c.Short})
	}
	suggests = append(suggests, prompt.Suggest{Text: "exit", Description: "Leave interactive mode"})
	return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
}

// contentCompletionFunc completes content item IDs from the server.
func contentCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	files, err := apiClient.Files(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var completions []string
	for _, f := range files {
		if strings.HasPrefix(f.ID, toComplete) {
			completions = append(completions, f.ID+"\t"+f.Name)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lanshare.yaml)")
	rootCmd.PersistentFlags().StringP("server", "s", "localhost:8080", "Address of the lanshare server")
	rootCmd.PersistentFlags().String("access-code", "", "Access code, when the server requires one")
	rootCmd.PersistentFlags().StringP("name", "n", "", "Display name attached to chat messages")
	rootCmd.PersistentFlags().Int64("max-message-bytes", client.DefaultMaxMessageBytes, "Largest frame the server accepts")

	viper.BindPFlag(serverAddressKey, rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag(accessCodeKey, rootCmd.PersistentFlags().Lookup("access-code"))
	viper.BindPFlag(displayNameKey, rootCmd.PersistentFlags().Lookup("name"))
	viper.BindPFlag(maxMessageKey, rootCmd.PersistentFlags().Lookup("max-message-bytes"))
	viper.SetDefault(serverAddressKey, "localhost:8080")
	viper.SetDefault(displayNameKey, defaultDisplayName())
	viper.SetDefault(maxMessageKey, client.DefaultMaxMessageBytes)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lanshare")
	}

	viper.SetEnvPrefix("LANSHARE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

func defaultDisplayName() string {
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "anonymous"
}
