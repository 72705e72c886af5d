package securetoken

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Purpose binds a single-use secret to the flow it was issued for.
type Purpose string

const (
	PurposeEmailConfirmation Purpose = "email-confirmation"
	PurposePasswordReset     Purpose = "password-reset"
)

// Provider issues and verifies raw single-use secrets bound to one account
// and one purpose. Verification consumes the secret.
type Provider interface {
	IssueSecret(ctx context.Context, purpose Purpose, accountID uuid.UUID) ([]byte, error)
	VerifySecret(ctx context.Context, purpose Purpose, accountID uuid.UUID, secret []byte) error
}

const nonceSize = 32

// HMACProvider implements Provider with crypto/rand nonces authenticated by
// an HMAC-SHA256 over (purpose, account id, nonce) with a service key. Issued
// secrets are tracked in a Store with an expiry and removed on first
// successful verification.
type HMACProvider struct {
	key    []byte
	expiry time.Duration
	store  Store
	now    func() time.Time
}

// ProviderOption configures an HMACProvider.
type ProviderOption func(*HMACProvider)

// WithStore sets the backing store for issued secrets. The default in-memory
// store loses outstanding links on restart; pass a PostgresStore for
// deployments that must survive one.
func WithStore(store Store) ProviderOption {
	return func(p *HMACProvider) {
		p.store = store
	}
}

// NewHMACProvider creates a provider with the given service key and token
// validity window.
func NewHMACProvider(key []byte, expiry time.Duration, opts ...ProviderOption) *HMACProvider {
	p := &HMACProvider{
		key:    append([]byte(nil), key...),
		expiry: expiry,
		store:  NewInMemoryStore(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IssueSecret mints a fresh secret for the purpose and account.
func (p *HMACProvider) IssueSecret(ctx context.Context, purpose Purpose, accountID uuid.UUID) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}

	mac := p.bind(purpose, accountID, nonce)

	if err := p.store.Save(ctx, hex.EncodeToString(mac), p.now().Add(p.expiry)); err != nil {
		return nil, err
	}
	return append(nonce, mac...), nil
}

// VerifySecret checks the secret's binding, expiry, and single-use state,
// consuming it on success.
func (p *HMACProvider) VerifySecret(ctx context.Context, purpose Purpose, accountID uuid.UUID, secret []byte) error {
	if len(secret) != nonceSize+sha256.Size {
		return ErrInvalidToken
	}
	nonce, mac := secret[:nonceSize], secret[nonceSize:]

	if !hmac.Equal(mac, p.bind(purpose, accountID, nonce)) {
		return ErrInvalidToken
	}

	expiresAt, ok, err := p.store.Consume(ctx, hex.EncodeToString(mac))
	if err != nil {
		return err
	}
	if !ok || p.now().After(expiresAt) {
		return ErrInvalidToken
	}
	return nil
}

func (p *HMACProvider) bind(purpose Purpose, accountID uuid.UUID, nonce []byte) []byte {
	h := hmac.New(sha256.New, p.key)
	h.Write([]byte(purpose))
	h.Write([]byte{0})
	h.Write(accountID[:])
	h.Write([]byte{0})
	h.Write(nonce)
	return h.Sum(nil)
}
