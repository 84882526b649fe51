package core

import (
	"context"
	"io"
)

type AvatarUpload struct {
	TempPath     string
	OriginalName string
}

type AvatarService interface {
	// Update replaces the account's avatar with the resized upload and returns the new public URL.
	// The temporary upload is removed on every path.
	Update(ctx context.Context, accountID string, upload AvatarUpload) (string, error)

	// Purge deletes every stored avatar file of the account.
	Purge(ctx context.Context, accountID string) error

	// Open streams a stored avatar for serving.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// URL is the public URL of a stored avatar.
	URL(name string) string

	Service
}

// AvatarStore is the flat namespace avatar files live in.
type AvatarStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
	Write(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
