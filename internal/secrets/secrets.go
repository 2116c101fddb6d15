// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads Trello credentials from a directory of plain-text
// files. Each file is one secret: the filename is the key name and the file
// contents (trimmed) are the value.
//
// Supported key files: trello-api-key, trello-token, s3-access-key, s3-secret-key.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Known key file names.
const (
	TrelloAPIKey = "trello-api-key"
	TrelloToken  = "trello-token"
	S3AccessKey  = "s3-access-key"
	S3SecretKey  = "s3-secret-key"
)

// Secrets maps key file names to their values.
type Secrets map[string]string

// Get returns the secret for key, or fallback when fallback is non-empty or
// the key is absent. Explicit values (flags, config) win over files.
func (s Secrets) Get(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return s[key]
}

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty map. Unreadable files produce a warning on w but do not
// abort.
func Load(dir string, w io.Writer) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
