// Package storage stores uploaded objects and hands back their public URLs.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey is returned for object keys that would escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// Uploader stores a complete object. A URL is only returned once the object is fully
// written; on error nothing is reachable under the key.
type Uploader interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Backend() string
	// BaseURL prefixes every URL Put returns.
	BaseURL() string
}

// CleanKey normalizes an object key and rejects traversal.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// JoinURL joins a base URL and an object key with exactly one slash.
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
