// Package securetoken issues and validates single-use, purpose-bound secrets
// and encodes them as URL-safe text for transport in email links.
package securetoken

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidToken is the only failure validation reports to callers:
// malformed input, unknown secrets, expired or already-consumed secrets all
// fail closed the same way.
var ErrInvalidToken = errors.New("invalid token")

// Codec encodes provider-issued secrets as URL-safe strings and decodes them
// back for verification. It holds no state of its own.
type Codec struct {
	provider Provider
}

// NewCodec wraps the given token provider.
func NewCodec(provider Provider) *Codec {
	return &Codec{provider: provider}
}

// Generate requests a raw secret from the provider and encodes it for use in
// a link.
func (c *Codec) Generate(ctx context.Context, purpose Purpose, accountID uuid.UUID) (string, error) {
	secret, err := c.provider.IssueSecret(ctx, purpose, accountID)
	if err != nil {
		return "", fmt.Errorf("failed to issue %s token: %w", purpose, err)
	}
	return base64.RawURLEncoding.EncodeToString(secret), nil
}

// Validate decodes the token and delegates verification to the provider. Any
// decode failure or provider rejection yields ErrInvalidToken; no decoding
// fault propagates to the caller.
func (c *Codec) Validate(ctx context.Context, purpose Purpose, accountID uuid.UUID, encoded string) error {
	secret, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return ErrInvalidToken
	}
	if err := c.provider.VerifySecret(ctx, purpose, accountID, secret); err != nil {
		return ErrInvalidToken
	}
	return nil
}
