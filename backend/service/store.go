package service

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/AnTengye/contractreview/backend/config"
	"github.com/AnTengye/contractreview/backend/model"
)

// ContractStore keeps recent analyses in memory, bounded by a maximum count.
// It is session state only: nothing survives a restart. Readers always get
// copies, so callers may modify what they receive.
type ContractStore struct {
	mu        sync.RWMutex
	contracts map[string]*model.Contract
	limit     int // 0 means unbounded
}

func NewContractStore(cfg *config.StoreConfig) *ContractStore {
	limit := max(cfg.MaxContracts, 0)
	slog.Info("contract store initialized", "max_contracts", limit)
	return &ContractStore{
		contracts: make(map[string]*model.Contract),
		limit:     limit,
	}
}

// Save inserts or replaces a record and evicts the oldest ones over the limit.
func (s *ContractStore) Save(contract *model.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = now
	}
	contract.UpdatedAt = now
	s.contracts[contract.ID] = contract

	s.evictLocked()
}

// Get returns a copy of the contract, or nil.
func (s *ContractStore) Get(id string) *model.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.contracts[id]; ok {
		return clone(c)
	}
	return nil
}

// GetForTenant is Get restricted to tenant's records.
func (s *ContractStore) GetForTenant(id, tenant string) *model.Contract {
	if c := s.Get(id); c != nil && c.Tenant == tenant {
		return c
	}
	return nil
}

// GetByTenant returns the tenant's contracts, newest first. Never nil.
func (s *ContractStore) GetByTenant(tenant string) []*model.Contract {
	s.mu.RLock()
	result := make([]*model.Contract, 0)
	for _, c := range s.contracts {
		if c.Tenant == tenant {
			result = append(result, clone(c))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(result, func(a, b *model.Contract) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result
}

func (s *ContractStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contracts, id)
}

// Complete records a finished analysis and the path that produced it.
func (s *ContractStore) Complete(id string, analysis model.ContractAnalysis, source model.AnalysisSource) {
	s.update(id, func(c *model.Contract) {
		c.Analysis = &analysis
		c.Source = source
		c.Status = model.StatusCompleted
		c.ErrorMsg = ""
	})
}

// Fail marks a contract whose analysis was abandoned.
func (s *ContractStore) Fail(id, errMsg string) {
	s.update(id, func(c *model.Contract) {
		c.Status = model.StatusFailed
		c.ErrorMsg = errMsg
	})
}

func (s *ContractStore) update(id string, fn func(*model.Contract)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.contracts[id]; ok {
		fn(c)
		c.UpdatedAt = time.Now()
	}
}

// evictLocked drops the oldest records beyond the limit. Caller holds mu.
func (s *ContractStore) evictLocked() {
	excess := len(s.contracts) - s.limit
	if s.limit == 0 || excess <= 0 {
		return
	}

	oldest := make([]*model.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		oldest = append(oldest, c)
	}
	slices.SortFunc(oldest, func(a, b *model.Contract) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	for _, c := range oldest[:excess] {
		slog.Info("evicting old contract analysis", "contract_id", c.ID, "created_at", c.CreatedAt)
		delete(s.contracts, c.ID)
	}
}

func (s *ContractStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contracts)
}

// clone copies the record and its analysis so callers cannot reach stored state.
func clone(c *model.Contract) *model.Contract {
	cp := *c
	if c.Analysis != nil {
		a := *c.Analysis
		a.Risks = slices.Clone(a.Risks)
		a.MissingClauses = slices.Clone(a.MissingClauses)
		a.KeyPoints = slices.Clone(a.KeyPoints)
		cp.Analysis = &a
	}
	return &cp
}
