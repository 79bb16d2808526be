// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the API token. The environment wins; otherwise
// the token is read from a plain-text file in a secrets directory, where the
// filename is the key and the trimmed contents are the value.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// TokenEnv is the environment variable holding the GraphQL token.
	TokenEnv = "GITHUB_TOKEN"

	// TokenFile is the key file consulted when TokenEnv is unset.
	TokenFile = "github-token"
)

// ErrNoToken is returned when neither the environment nor the secrets
// directory supplies a token.
var ErrNoToken = errors.New("no API token: set " + TokenEnv + " or write it to .secrets/" + TokenFile)

// Token returns the API token from TokenEnv, falling back to dir/TokenFile.
// The second return value names where the token came from, for logging.
func Token(dir string) (token, source string, err error) {
	if v := strings.TrimSpace(os.Getenv(TokenEnv)); v != "" {
		return v, "env:" + TokenEnv, nil
	}

	path := filepath.Join(dir, TokenFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", ErrNoToken
		}
		return "", "", fmt.Errorf("reading secret %s: %w", path, err)
	}

	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", "", ErrNoToken
	}
	return v, "file:" + path, nil
}
