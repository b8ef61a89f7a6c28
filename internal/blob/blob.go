// Package blob is the object-storage side-channel for media payloads. Blobs
// are opaque bytes keyed by filename; Put returns the URL clients fetch the
// blob from.
package blob

import (
	"context"
	"errors"
)

// Store is the interface the message handlers upload media through. Both
// implementations are safe for concurrent use.
type Store interface {
	// Put stores data under key and returns a fetch URL, presigned and
	// time-limited where the backend supports it.
	Put(ctx context.Context, key string, data []byte) (string, error)

	// Get fetches the raw bytes stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob stored under key.
	Delete(ctx context.Context, key string) error
}

// Disabled is the backend used when no storage credentials are configured.
// Media frames fail their upload and are dropped; text traffic is unaffected.
type Disabled struct{}

var errDisabled = errors.New("no blob storage backend configured")

func (Disabled) Put(context.Context, string, []byte) (string, error) { return "", errDisabled }
func (Disabled) Get(context.Context, string) ([]byte, error)        { return nil, errDisabled }
func (Disabled) Delete(context.Context, string) error               { return errDisabled }
