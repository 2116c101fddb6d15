// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trello2md/internal/secrets"
	"github.com/pdiddy/trello2md/pkg/types"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultUserAgent   = "trello2md/0.1"
	defaultOutputDir   = "boards"
	defaultConcurrency = 4
)

// The setting helpers resolve a value in order: flag set on the command
// line, config file or TRELLO2MD_ environment variable under key, flag
// default. Flags are not bound to viper directly because several commands
// share a key.

func stringSetting(cmd *cobra.Command, flag, key string) string {
	v, _ := cmd.Flags().GetString(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetString(key)
	}
	return v
}

func intSetting(cmd *cobra.Command, flag, key string) int {
	v, _ := cmd.Flags().GetInt(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return v
}

func boolSetting(cmd *cobra.Command, flag, key string) bool {
	v, _ := cmd.Flags().GetBool(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return v
}

func httpConfig() types.HTTPConfig {
	cfg := types.HTTPConfig{
		Timeout:    viper.GetDuration("http.timeout"),
		UserAgent:  viper.GetString("http.user_agent"),
		MaxRetries: viper.GetInt("http.max_retries"),
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return cfg
}

// trelloConfig builds the API client settings. Credentials from the config
// file or environment win over the secrets directory.
func trelloConfig() types.TrelloConfig {
	return types.TrelloConfig{
		HTTPConfig:   httpConfig(),
		BaseURL:      viper.GetString("trello.base_url"),
		APIKey:       loadedSecrets.Get(secrets.TrelloAPIKey, viper.GetString("trello.api_key")),
		Token:        loadedSecrets.Get(secrets.TrelloToken, viper.GetString("trello.token")),
		ActionsLimit: viper.GetInt("trello.actions_limit"),
	}
}

func exportConfig(cmd *cobra.Command) types.ExportConfig {
	trello := trelloConfig()
	noAttachments := boolSetting(cmd, "no-attachments", "no_attachments")

	return types.ExportConfig{
		OutputDir:           stringSetting(cmd, "output-dir", "output_dir"),
		DownloadAttachments: !noAttachments,
		SkipArchived:        boolSetting(cmd, "skip-archived", "skip_archived"),
		SummaryFile:         stringSetting(cmd, "summary-file", "summary_file"),
		Download: types.DownloadConfig{
			HTTPConfig:  trello.HTTPConfig,
			Concurrency: intSetting(cmd, "concurrency", "download.concurrency"),
			APIKey:      trello.APIKey,
			Token:       trello.Token,
		},
		S3: types.S3Config{
			Endpoint:     stringSetting(cmd, "s3-endpoint", "s3.endpoint"),
			Bucket:       stringSetting(cmd, "s3-bucket", "s3.bucket"),
			Prefix:       stringSetting(cmd, "s3-prefix", "s3.prefix"),
			Region:       stringSetting(cmd, "s3-region", "s3.region"),
			AccessKey:    loadedSecrets.Get(secrets.S3AccessKey, viper.GetString("s3.access_key")),
			SecretKey:    loadedSecrets.Get(secrets.S3SecretKey, viper.GetString("s3.secret_key")),
			UsePathStyle: viper.GetBool("s3.use_path_style"),
		},
	}
}

func httpClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

// styledOutput reports whether stdout is a terminal.
func styledOutput() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}
