package main

import (
	"fmt"

	"prize-pool-backend/internal/common/config"
	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/features/pool/asset"
	"prize-pool-backend/internal/features/pool/models"
	"prize-pool-backend/internal/features/pool/service"
	walletRepository "prize-pool-backend/internal/features/wallet/repository"
	walletMemory "prize-pool-backend/internal/features/wallet/repository/memory"
	walletRedis "prize-pool-backend/internal/features/wallet/repository/redis"
	walletService "prize-pool-backend/internal/features/wallet/service"
	"prize-pool-backend/internal/platform/custody"
	"prize-pool-backend/internal/platform/redis"
	"prize-pool-backend/internal/platform/ton"
	"prize-pool-backend/internal/platform/yield"
)

const treasuryAccount = "treasury"

func buildClock(cfg *config.Config, tonClient *ton.Client) service.Clock {
	if tonClient != nil && cfg.Ton.ChainClock {
		logger.Info().Msg("Using masterchain seqno as slot source")
		return service.NewChainClock(tonClient, cfg.Clock.SlotsPerEpoch)
	}
	return service.NewSlotClock(cfg.Clock.Genesis, cfg.Clock.SlotDuration, cfg.Clock.SlotsPerEpoch)
}

func buildWalletService(cfg *config.Config, redisClient *redis.Client, tonClient *ton.Client) walletService.Service {
	var repo walletRepository.Repository
	if redisClient != nil {
		repo = walletRedis.NewRepository(redisClient.Client)
	} else {
		repo = walletMemory.NewRepository()
	}

	// without a chain connection the key sent with the proof is trusted
	var keys walletService.KeySource
	if tonClient != nil {
		keys = tonClient
	}

	return walletService.NewService(repo, keys, walletService.Settings{
		Domain:       cfg.Wallet.Domain,
		ChallengeTTL: cfg.Wallet.ChallengeTTL,
		ProofMaxAge:  cfg.Wallet.ProofMaxAge,
	})
}

// buildMover assembles the variant's AssetMover. Inbound legs always debit
// custody balances, which operators fund with POST /custody/credit once a
// deposit to the vault wallet is seen on chain. Outbound legs are signed
// on chain when TON is enabled and retire the same amount from the sending
// custody account; otherwise they settle in the custody ledger too.
func buildMover(cfg *config.Config, ledger custody.Ledger, tonClient *ton.Client, book ton.AddressBook) (service.AssetMover, error) {
	variant := cfg.PoolVariant()
	accounts := asset.Accounts{Vault: cfg.Pool.VaultAccount}

	var (
		outbound asset.Transferer = ledger
		tokens   asset.TokenAccounts
	)

	if tonClient != nil {
		wallets, err := ton.OpenWallets(tonClient, map[string]string{
			cfg.Pool.VaultAccount: cfg.Ton.VaultSeed,
			treasuryAccount:       cfg.Ton.AdminSeed,
		})
		if err != nil {
			return nil, err
		}
		wallets.UseAddressBook(book)
		accounts.Treasury = treasuryAccount

		if variant == models.VariantNative {
			outbound = asset.NewOffRamp(ledger, ton.NewNativeTransferer(wallets), asset.DefaultSink)
		} else {
			jetton, err := ton.NewJetton(tonClient, cfg.Ton.JettonMaster, cfg.Ton.JettonDecimals)
			if err != nil {
				return nil, err
			}
			jetton.UseAddressBook(book)
			outbound = asset.NewOffRamp(ledger, ton.NewJettonTransferer(wallets, jetton), asset.DefaultSink)
			tokens = jetton
		}
	} else if variant != models.VariantNative {
		tokens = asset.NewRegistry(cfg.Ton.JettonMaster)
	}

	switch variant {
	case models.VariantNative:
		return asset.NewNative(ledger, outbound, accounts), nil
	case models.VariantStable:
		return asset.NewStable(ledger, outbound, accounts, tokens), nil
	case models.VariantYield:
		venue := yield.NewReserveVenue(cfg.Yield.Venue, ledger)
		inner := asset.NewStable(ledger, outbound, accounts, tokens)
		return asset.NewYield(inner, venue, accounts.Vault), nil
	default:
		return nil, fmt.Errorf("unsupported pool variant %q", variant)
	}
}
