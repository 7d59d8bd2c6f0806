package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"prize-pool-backend/internal/features/pool/models"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Storage struct {
		Backend string `env:"STORAGE_BACKEND" envDefault:"redis"`
	}

	Redis struct {
		Host     string        `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int           `env:"REDIS_PORT" envDefault:"6379"`
		Password string        `env:"REDIS_PASSWORD" envDefault:""`
		DB       int           `env:"REDIS_DB" envDefault:"0"`
		CacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"2s"`
	}

	Telegram struct {
		BotToken    string        `env:"BOT_TOKEN,notEmpty"`
		InitDataTTL time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
		AdminIDs    []string      `env:"ADMIN_IDS" envSeparator:","`
		// Notify sends draw and payout messages to winners through the bot.
		Notify bool `env:"TELEGRAM_NOTIFY" envDefault:"false"`
	}

	Pool struct {
		// ID is the fixed derivation tag every key of the pool is built from.
		ID           string        `env:"POOL_ID" envDefault:"sol_pool_vrf"`
		Variant      string        `env:"POOL_VARIANT" envDefault:"native"`
		RewardUnit   uint64        `env:"POOL_REWARD_UNIT" envDefault:"0"`
		Cooldown     time.Duration `env:"POOL_COOLDOWN" envDefault:"60s"`
		VaultAccount string        `env:"POOL_VAULT_ACCOUNT" envDefault:"sol_vault"`
		DrawInterval time.Duration `env:"POOL_DRAW_INTERVAL" envDefault:"0"`
		DrawStream   string        `env:"DRAW_STREAM" envDefault:"pool:draw_requests"`
	}

	Clock struct {
		Genesis       time.Time     `env:"CLOCK_GENESIS" envDefault:"2020-03-16T14:29:00Z"`
		SlotDuration  time.Duration `env:"CLOCK_SLOT_DURATION" envDefault:"400ms"`
		SlotsPerEpoch uint64        `env:"CLOCK_SLOTS_PER_EPOCH" envDefault:"432000"`
	}

	Ton struct {
		Enabled        bool   `env:"TON_ENABLED" envDefault:"false"`
		ConfigURL      string `env:"TON_CONFIG_URL" envDefault:"https://ton.org/global.config.json"`
		VaultSeed      string `env:"TON_VAULT_SEED"`
		AdminSeed      string `env:"TON_ADMIN_SEED"`
		JettonMaster   string `env:"TON_JETTON_MASTER"`
		JettonDecimals int    `env:"TON_JETTON_DECIMALS" envDefault:"6"`
		ChainClock     bool   `env:"TON_CHAIN_CLOCK" envDefault:"false"`
	}

	Wallet struct {
		// Domain is the dApp domain TON Connect proofs must be signed for.
		Domain       string        `env:"TON_PROOF_DOMAIN" envDefault:"ton.app"`
		ChallengeTTL time.Duration `env:"TON_PROOF_CHALLENGE_TTL" envDefault:"15m"`
		ProofMaxAge  time.Duration `env:"TON_PROOF_MAX_AGE" envDefault:"5m"`
	}

	Yield struct {
		Venue string `env:"YIELD_VENUE" envDefault:"solend"`
	}
}

func Load() *Config {
	// .env is optional; production sets the environment directly
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Parse reads the environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if _, err := models.ParseVariant(c.Pool.Variant); err != nil {
		return err
	}
	if strings.TrimSpace(c.Pool.ID) == "" {
		return fmt.Errorf("POOL_ID must not be empty")
	}
	if c.Pool.Cooldown < 0 {
		return fmt.Errorf("POOL_COOLDOWN must not be negative")
	}
	if c.Clock.SlotDuration <= 0 || c.Clock.SlotsPerEpoch == 0 {
		return fmt.Errorf("clock slot duration and slots per epoch must be positive")
	}
	if c.Ton.Enabled && (c.Ton.VaultSeed == "" || c.Ton.AdminSeed == "") {
		return fmt.Errorf("TON_VAULT_SEED and TON_ADMIN_SEED are required when TON_ENABLED")
	}
	if c.Ton.Enabled && c.Pool.Variant != string(models.VariantNative) && c.Ton.JettonMaster == "" {
		return fmt.Errorf("TON_JETTON_MASTER is required for the %s variant", c.Pool.Variant)
	}
	return nil
}

// PoolVariant returns the validated variant.
func (c *Config) PoolVariant() models.Variant {
	v, _ := models.ParseVariant(c.Pool.Variant)
	return v
}

// RewardUnit returns the configured reward increment or the variant default.
func (c *Config) RewardUnit() uint64 {
	if c.Pool.RewardUnit > 0 {
		return c.Pool.RewardUnit
	}
	return c.PoolVariant().DefaultRewardUnit()
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
