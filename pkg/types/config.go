package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trello2md/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// TrelloConfig holds credentials and endpoint settings for the Trello REST API.
type TrelloConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the API root (default "https://api.trello.com/1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey and Token authenticate requests. Both are usually loaded from
	// .secrets/trello-api-key and .secrets/trello-token.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Token  string `json:"token,omitempty" yaml:"token,omitempty"`

	// ActionsLimit caps the number of comment actions requested per board
	// (Trello allows at most 1000).
	ActionsLimit int `json:"actions_limit" yaml:"actions_limit"`
}

// HasCredentials reports whether both the key and the token are set.
func (c TrelloConfig) HasCredentials() bool {
	return c.APIKey != "" && c.Token != ""
}

// DownloadConfig holds settings for the attachment download batch.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// Concurrency is the maximum number of downloads in flight (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// APIKey and Token are sent as an OAuth header; uploads on trello.com
	// are not downloadable anonymously.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Token  string `json:"token,omitempty" yaml:"token,omitempty"`
}

// S3Config holds settings for mirroring an export to an S3-compatible bucket.
type S3Config struct {
	Endpoint     string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Bucket       string `json:"bucket" yaml:"bucket"`
	Prefix       string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region       string `json:"region" yaml:"region"`
	AccessKey    string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey    string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
	UsePathStyle bool   `json:"use_path_style" yaml:"use_path_style"`
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// ExportConfig holds settings for one export run.
type ExportConfig struct {
	// OutputDir is the base directory boards are written under.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// DownloadAttachments enables the attachment download batch.
	DownloadAttachments bool `json:"download_attachments" yaml:"download_attachments"`

	// SkipArchived leaves archived lists and cards out of the rendered tree.
	// Their paths are still allocated.
	SkipArchived bool `json:"skip_archived" yaml:"skip_archived"`

	// SummaryFile, when set, receives the run summary as YAML.
	SummaryFile string `json:"summary_file,omitempty" yaml:"summary_file,omitempty"`

	Download DownloadConfig `json:"download" yaml:"download"`
	S3       S3Config       `json:"s3" yaml:"s3"`
}
