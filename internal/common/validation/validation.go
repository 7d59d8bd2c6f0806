package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Максимальные длины для различных полей
	MaxIdentityLength = 128
	MaxCandidates     = 1024

	DefaultListLimit = 50
	MaxListLimit     = 1000
)

// Identities are Telegram user ids, TON wallet addresses (raw or
// user-friendly) or custody account names.
var identityRegex = regexp.MustCompile(`^[A-Za-z0-9_:\-+/=.]+$`)

// ValidateIdentity проверяет идентификатор участника
func ValidateIdentity(identity string) error {
	if identity == "" {
		return fmt.Errorf("identity cannot be empty")
	}
	if strings.TrimSpace(identity) != identity {
		return fmt.Errorf("identity cannot contain surrounding whitespace")
	}
	if len(identity) > MaxIdentityLength {
		return fmt.Errorf("identity cannot exceed %d characters", MaxIdentityLength)
	}
	if !identityRegex.MatchString(identity) {
		return fmt.Errorf("identity contains invalid characters")
	}
	return nil
}

// ValidateCandidates checks a draw's explicit candidate list. Duplicates are
// allowed here; the draw itself collapses them.
func ValidateCandidates(candidates []string) error {
	if len(candidates) > MaxCandidates {
		return fmt.Errorf("candidates cannot exceed %d entries", MaxCandidates)
	}
	for i, c := range candidates {
		if err := ValidateIdentity(c); err != nil {
			return fmt.Errorf("candidate %d: %w", i, err)
		}
	}
	return nil
}

func ValidatePositiveAmount(value uint64, fieldName string) error {
	if value == 0 {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	return nil
}

// ParseLimit parses a list limit query value. Empty means DefaultListLimit;
// values above MaxListLimit are clamped.
func ParseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer")
	}
	if n <= 0 {
		return 0, fmt.Errorf("limit must be positive")
	}
	if n > MaxListLimit {
		n = MaxListLimit
	}
	return n, nil
}

func IsValidIdentity(identity string) bool {
	return ValidateIdentity(identity) == nil
}
