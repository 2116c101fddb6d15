// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trello2md CLI.
//
// trello2md rebuilds Trello board exports as a folder tree of Markdown files
// with their attachments. Boards come from export files or straight from the
// Trello REST API.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trello2md/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the trello2md CLI.
var rootCmd = &cobra.Command{
	Use:   "trello2md",
	Short: "Export Trello boards to folders of Markdown files",
	Long: `trello2md converts Trello boards into a deterministic folder tree: one
folder per list, one Markdown file per card, with comments, checklists and
attachments next to it. Archived lists and cards go to their own folders.

Boards are read from JSON exports (--input) or fetched from the Trello API
using the key and token in .secrets/trello-api-key and .secrets/trello-token.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(viper.GetString("secrets_dir"), os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trello2md.yaml or ~/.config/trello2md/trello2md.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory holding trello-api-key and trello-token")
	viper.BindPFlag("secrets_dir", rootCmd.PersistentFlags().Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trello2md")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trello2md"))
		}
	}

	viper.SetEnvPrefix("TRELLO2MD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
