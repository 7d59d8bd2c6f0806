package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"prize-pool-backend/internal/features/wallet/models"
	"prize-pool-backend/internal/features/wallet/repository"
)

const (
	keyPrefixChallenge = "wallet:challenge:"
	keyPrefixLink      = "wallet:link:"
)

type Repository struct {
	client *redis.Client
}

func NewRepository(client *redis.Client) repository.Repository {
	return &Repository{client: client}
}

func (r *Repository) SaveChallenge(ctx context.Context, challenge *models.Challenge, ttl time.Duration) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}
	return r.client.Set(ctx, keyPrefixChallenge+challenge.Identity, data, ttl).Err()
}

func (r *Repository) TakeChallenge(ctx context.Context, identity string) (*models.Challenge, error) {
	data, err := r.client.GetDel(ctx, keyPrefixChallenge+identity).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	var challenge models.Challenge
	if err := json.Unmarshal(data, &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}
	return &challenge, nil
}

func (r *Repository) SaveLink(ctx context.Context, link *models.WalletLink) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet link: %w", err)
	}
	return r.client.Set(ctx, keyPrefixLink+link.Identity, data, 0).Err()
}

func (r *Repository) GetLink(ctx context.Context, identity string) (*models.WalletLink, error) {
	data, err := r.client.Get(ctx, keyPrefixLink+identity).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet link: %w", err)
	}

	var link models.WalletLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet link: %w", err)
	}
	return &link, nil
}
