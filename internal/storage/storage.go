// Package storage keeps uploaded document images on local disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidKey is returned for empty keys and keys escaping the store root.
var ErrInvalidKey = errors.New("storage: invalid object key")

// ObjectStore saves an object and returns the URL it can be fetched from.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}
