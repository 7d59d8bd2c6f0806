package memory

import (
	"testing"

	"prize-pool-backend/internal/features/pool/repository"
	"prize-pool-backend/internal/features/pool/repository/repotest"
)

func TestMemoryRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.PoolRepository {
		return NewPoolRepository()
	})
}
