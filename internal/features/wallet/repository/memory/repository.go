package memory

import (
	"context"
	"sync"
	"time"

	"prize-pool-backend/internal/features/wallet/models"
	"prize-pool-backend/internal/features/wallet/repository"
)

type challengeEntry struct {
	challenge models.Challenge
	expires   time.Time
}

type Repository struct {
	mu         sync.Mutex
	challenges map[string]challengeEntry
	links      map[string]models.WalletLink
	now        func() time.Time
}

func NewRepository() repository.Repository {
	return &Repository{
		challenges: make(map[string]challengeEntry),
		links:      make(map[string]models.WalletLink),
		now:        time.Now,
	}
}

func (r *Repository) SaveChallenge(_ context.Context, challenge *models.Challenge, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[challenge.Identity] = challengeEntry{challenge: *challenge, expires: r.now().Add(ttl)}
	return nil
}

func (r *Repository) TakeChallenge(_ context.Context, identity string) (*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.challenges[identity]
	if !ok {
		return nil, nil
	}
	delete(r.challenges, identity)
	if !r.now().Before(entry.expires) {
		return nil, nil
	}
	c := entry.challenge
	return &c, nil
}

func (r *Repository) SaveLink(_ context.Context, link *models.WalletLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[link.Identity] = *link
	return nil
}

func (r *Repository) GetLink(_ context.Context, identity string) (*models.WalletLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[identity]
	if !ok {
		return nil, nil
	}
	return &link, nil
}
