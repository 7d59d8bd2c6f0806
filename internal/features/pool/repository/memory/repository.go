package memory

import (
	"context"
	"sync"

	"prize-pool-backend/internal/features/pool/models"
	"prize-pool-backend/internal/features/pool/repository"
)

type poolState struct {
	pool     *models.Pool
	deposits map[string]*models.DepositRecord
	order    []string
	draws    []*models.Draw
	claims   []*models.Claim
}

type memoryRepository struct {
	mu    sync.Mutex
	pools map[string]*poolState
}

// NewPoolRepository returns a process-local repository. Atomic calls are
// serialized by a single mutex.
func NewPoolRepository() repository.PoolRepository {
	return &memoryRepository{pools: make(map[string]*poolState)}
}

func (r *memoryRepository) state(poolID string) *poolState {
	st, ok := r.pools[poolID]
	if !ok {
		st = &poolState{deposits: make(map[string]*models.DepositRecord)}
		r.pools[poolID] = st
	}
	return st
}

func (r *memoryRepository) Atomic(ctx context.Context, poolID string, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryTx{
		state:    r.state(poolID),
		deposits: make(map[string]*models.DepositRecord),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (r *memoryRepository) GetPool(_ context.Context, poolID string) (*models.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.pools[poolID]
	if !ok || st.pool == nil {
		return nil, repository.ErrPoolNotFound
	}
	return st.pool.Clone(), nil
}

func (r *memoryRepository) GetDeposit(_ context.Context, poolID, owner string) (*models.DepositRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.pools[poolID]
	if !ok {
		return nil, nil
	}
	return st.deposits[owner].Clone(), nil
}

func (r *memoryRepository) ListDeposits(_ context.Context, poolID string) ([]*models.DepositRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.pools[poolID]
	if !ok {
		return []*models.DepositRecord{}, nil
	}
	out := make([]*models.DepositRecord, 0, len(st.order))
	for _, owner := range st.order {
		out = append(out, st.deposits[owner].Clone())
	}
	return out, nil
}

func (r *memoryRepository) ListDraws(_ context.Context, poolID string, limit int) ([]*models.Draw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.pools[poolID]
	if !ok {
		return []*models.Draw{}, nil
	}
	return newestFirst(st.draws, limit), nil
}

func (r *memoryRepository) ListClaims(_ context.Context, poolID string, limit int) ([]*models.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.pools[poolID]
	if !ok {
		return []*models.Claim{}, nil
	}
	return newestFirst(st.claims, limit), nil
}

func newestFirst[T any](items []*T, limit int) []*T {
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}
	out := make([]*T, 0, limit)
	for i := len(items) - 1; i >= 0 && len(out) < limit; i-- {
		c := *items[i]
		out = append(out, &c)
	}
	return out
}

type memoryTx struct {
	state    *poolState
	pool     *models.Pool
	deposits map[string]*models.DepositRecord
	added    []string
	draws    []*models.Draw
	claims   []*models.Claim
}

func (tx *memoryTx) Pool() (*models.Pool, error) {
	if tx.pool != nil {
		return tx.pool.Clone(), nil
	}
	if tx.state.pool == nil {
		return nil, repository.ErrPoolNotFound
	}
	return tx.state.pool.Clone(), nil
}

func (tx *memoryTx) PutPool(pool *models.Pool) {
	tx.pool = pool.Clone()
}

func (tx *memoryTx) Deposit(owner string) (*models.DepositRecord, error) {
	if rec, ok := tx.deposits[owner]; ok {
		return rec.Clone(), nil
	}
	return tx.state.deposits[owner].Clone(), nil
}

func (tx *memoryTx) PutDeposit(record *models.DepositRecord) {
	if _, staged := tx.deposits[record.Owner]; !staged {
		if _, exists := tx.state.deposits[record.Owner]; !exists {
			tx.added = append(tx.added, record.Owner)
		}
	}
	tx.deposits[record.Owner] = record.Clone()
}

func (tx *memoryTx) Depositors() ([]*models.DepositRecord, error) {
	out := make([]*models.DepositRecord, 0, len(tx.state.order)+len(tx.added))
	for _, owner := range tx.state.order {
		rec, _ := tx.Deposit(owner)
		out = append(out, rec)
	}
	for _, owner := range tx.added {
		out = append(out, tx.deposits[owner].Clone())
	}
	return out, nil
}

func (tx *memoryTx) AppendDraw(draw *models.Draw) {
	c := *draw
	tx.draws = append(tx.draws, &c)
}

func (tx *memoryTx) AppendClaim(claim *models.Claim) {
	c := *claim
	tx.claims = append(tx.claims, &c)
}

func (tx *memoryTx) commit() {
	st := tx.state
	if tx.pool != nil {
		st.pool = tx.pool
	}
	for owner, rec := range tx.deposits {
		st.deposits[owner] = rec
	}
	st.order = append(st.order, tx.added...)
	st.draws = trimHistory(append(st.draws, tx.draws...))
	st.claims = trimHistory(append(st.claims, tx.claims...))
}

func trimHistory[T any](items []*T) []*T {
	if len(items) > repository.DefaultHistorySize {
		return items[len(items)-repository.DefaultHistorySize:]
	}
	return items
}
