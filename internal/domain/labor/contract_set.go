package labor

import "sync"

// ContractSet is the per-agent collection of active labor contracts, keyed
// by contract hash and indexed secondarily by end-step so the per-step
// garbage-collection tick handler doesn't need to scan the whole set every
// step.
type ContractSet struct {
	mu        sync.Mutex
	byHash    map[string]*Contract
	byEndStep map[int]map[string]struct{}
}

// NewContractSet returns an empty contract set.
func NewContractSet() *ContractSet {
	return &ContractSet{
		byHash:    make(map[string]*Contract),
		byEndStep: make(map[int]map[string]struct{}),
	}
}

// Add inserts a contract into the set.
func (s *ContractSet) Add(c *Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHash[c.Hash()] = c
	bucket, ok := s.byEndStep[c.EndStep()]
	if !ok {
		bucket = make(map[string]struct{})
		s.byEndStep[c.EndStep()] = bucket
	}
	bucket[c.Hash()] = struct{}{}
}

// Remove deletes a contract from the set by hash. Idempotent.
func (s *ContractSet) Remove(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byHash[hash]
	if !ok {
		return
	}
	delete(s.byHash, hash)
	if bucket, ok := s.byEndStep[c.EndStep()]; ok {
		delete(bucket, hash)
		if len(bucket) == 0 {
			delete(s.byEndStep, c.EndStep())
		}
	}
}

// Get returns a contract by hash and whether it was found.
func (s *ContractSet) Get(hash string) (*Contract, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byHash[hash]
	return c, ok
}

// ExpiringAtStep returns every contract whose endStep+1 == step — the set
// the per-step GC tick handler should remove.
func (s *ContractSet) ExpiringAtStep(step int) []*Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.byEndStep[step-1]
	if !ok {
		return nil
	}
	out := make([]*Contract, 0, len(bucket))
	for hash := range bucket {
		out = append(out, s.byHash[hash])
	}
	return out
}

// All returns every contract currently in the set, for checkpoint
// serialization and information responses.
func (s *ContractSet) All() []*Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Contract, 0, len(s.byHash))
	for _, c := range s.byHash {
		out = append(out, c)
	}
	return out
}
