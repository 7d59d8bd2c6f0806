package repository

import (
	"context"
	"time"

	"prize-pool-backend/internal/features/wallet/models"
)

type Repository interface {
	// SaveChallenge stores the pending challenge of an identity, replacing any previous one.
	SaveChallenge(ctx context.Context, challenge *models.Challenge, ttl time.Duration) error

	// TakeChallenge returns and deletes the pending challenge, or nil when none is live.
	TakeChallenge(ctx context.Context, identity string) (*models.Challenge, error)

	SaveLink(ctx context.Context, link *models.WalletLink) error

	// GetLink returns nil when the identity has no linked wallet.
	GetLink(ctx context.Context, identity string) (*models.WalletLink, error)
}
