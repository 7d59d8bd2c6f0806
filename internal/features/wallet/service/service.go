package service

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/features/wallet/models"
	"prize-pool-backend/internal/features/wallet/repository"
)

var (
	ErrChallengeNotFound = errors.New("no pending wallet challenge")
	ErrInvalidDomain     = errors.New("proof was signed for another domain")
	ErrProofExpired      = errors.New("proof expired")
	ErrInvalidProof      = errors.New("invalid wallet proof")
	ErrNotLinked         = errors.New("no wallet linked")
)

// KeySource reads the public key a deployed wallet contract holds.
type KeySource interface {
	WalletPublicKey(ctx context.Context, addr string) (ed25519.PublicKey, error)
}

type Settings struct {
	// Domain is the dApp domain wallets must sign for.
	Domain       string
	ChallengeTTL time.Duration
	ProofMaxAge  time.Duration
}

type Service interface {
	Challenge(ctx context.Context, identity string) (*models.Challenge, error)
	Link(ctx context.Context, identity string, req *models.LinkRequest) (*models.WalletLink, error)
	Get(ctx context.Context, identity string) (*models.WalletLink, error)
	// Lookup reports the wallet address linked to identity, if any.
	Lookup(ctx context.Context, identity string) (string, bool, error)
}

type walletService struct {
	repo     repository.Repository
	keys     KeySource
	settings Settings
	now      func() time.Time
}

// NewService creates the wallet link service. keys may be nil, in which
// case the public key sent with the proof is trusted.
func NewService(repo repository.Repository, keys KeySource, settings Settings) Service {
	if settings.ChallengeTTL <= 0 {
		settings.ChallengeTTL = 15 * time.Minute
	}
	if settings.ProofMaxAge <= 0 {
		settings.ProofMaxAge = 5 * time.Minute
	}
	return &walletService{repo: repo, keys: keys, settings: settings, now: time.Now}
}

func (s *walletService) Challenge(ctx context.Context, identity string) (*models.Challenge, error) {
	now := s.now().UTC()
	challenge := &models.Challenge{
		Identity:  identity,
		Payload:   strings.ReplaceAll(uuid.New().String(), "-", ""),
		CreatedAt: now,
		ExpiresAt: now.Add(s.settings.ChallengeTTL),
	}
	if err := s.repo.SaveChallenge(ctx, challenge, s.settings.ChallengeTTL); err != nil {
		return nil, err
	}
	return challenge, nil
}

func (s *walletService) Link(ctx context.Context, identity string, req *models.LinkRequest) (*models.WalletLink, error) {
	if req.Proof.Domain.Value != s.settings.Domain {
		return nil, ErrInvalidDomain
	}

	now := s.now()
	signedAt := time.Unix(req.Proof.Timestamp, 0)
	if now.Sub(signedAt) > s.settings.ProofMaxAge || signedAt.After(now.Add(time.Minute)) {
		return nil, ErrProofExpired
	}

	addr, err := parseAddress(req.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: bad address: %v", ErrInvalidProof, err)
	}
	signature, err := base64.StdEncoding.DecodeString(req.Proof.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: bad signature encoding", ErrInvalidProof)
	}

	// the challenge is consumed even when verification fails below
	challenge, err := s.repo.TakeChallenge(ctx, identity)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ErrChallengeNotFound
	}
	if challenge.Payload != req.Proof.Payload {
		return nil, fmt.Errorf("%w: payload mismatch", ErrInvalidProof)
	}

	key, err := s.publicKey(ctx, req)
	if err != nil {
		return nil, err
	}
	if !verifyProof(key, addr, req.Proof.Domain.Value, req.Proof.Timestamp, req.Proof.Payload, signature) {
		return nil, fmt.Errorf("%w: signature verification failed", ErrInvalidProof)
	}

	link := &models.WalletLink{
		Identity:   identity,
		Address:    addr.String(),
		Network:    req.Network,
		VerifiedAt: now.UTC(),
	}
	if err := s.repo.SaveLink(ctx, link); err != nil {
		return nil, err
	}

	logger.Info().
		Str("identity", identity).
		Str("address", link.Address).
		Msg("Wallet linked")
	return link, nil
}

func (s *walletService) publicKey(ctx context.Context, req *models.LinkRequest) (ed25519.PublicKey, error) {
	if s.keys != nil {
		key, err := s.keys.WalletPublicKey(ctx, req.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read wallet key: %v", ErrInvalidProof, err)
		}
		return key, nil
	}
	key, err := hex.DecodeString(req.PublicKey)
	if err != nil || len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: bad public key", ErrInvalidProof)
	}
	return key, nil
}

func (s *walletService) Get(ctx context.Context, identity string) (*models.WalletLink, error) {
	link, err := s.repo.GetLink(ctx, identity)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotLinked
	}
	return link, nil
}

func (s *walletService) Lookup(ctx context.Context, identity string) (string, bool, error) {
	link, err := s.repo.GetLink(ctx, identity)
	if err != nil || link == nil {
		return "", false, err
	}
	return link.Address, true, nil
}
