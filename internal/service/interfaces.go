package service

import (
	"context"
	"time"
)

// TokenRevoker stores ids of tokens that were logged out before expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ImageStore persists a recipe image and returns the value stored on the
// recipe row.
type ImageStore interface {
	Store(ctx context.Context, image string) (string, error)
}
