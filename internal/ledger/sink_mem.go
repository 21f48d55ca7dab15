package ledger

import (
	"context"
	"sync"
)

// MemSink is a map-backed sink for tests and dry runs. FailFirst makes the
// first n TransactWrite attempts fail with a TransientError so retry
// behavior can be exercised without a real flaky store.
type MemSink struct {
	mu        sync.Mutex
	transfers map[string]Transfer
	accounts  map[accountRef]Account
	tokens    map[string]int // token -> items written by the original attempt

	FailFirst int
	attempts  int
}

// NewMemSink returns an empty in-memory sink.
func NewMemSink() *MemSink {
	return &MemSink{
		transfers: make(map[string]Transfer),
		accounts:  make(map[accountRef]Account),
		tokens:    make(map[string]int),
	}
}

func (s *MemSink) CreateAccounts(_ context.Context, accounts []Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		s.accounts[accountRef{Ledger: a.Ledger, ID: a.ID}] = a
	}
	return nil
}

func (s *MemSink) TransactWrite(_ context.Context, w *Write) (*WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	if s.attempts <= s.FailFirst {
		return nil, &TransientError{Msg: "simulated transient failure"}
	}

	if items, ok := s.tokens[w.Token]; ok {
		return &WriteResult{ItemsWritten: items, ConsumedCapacity: 0, Replayed: true}, nil
	}
	for _, t := range w.Puts {
		if _, exists := s.transfers[t.ID]; exists {
			return nil, &ConflictError{TransferID: t.ID}
		}
	}

	for _, t := range w.Puts {
		s.transfers[t.ID] = t
	}
	for _, u := range w.Updates {
		ref := accountRef{Ledger: u.Ledger, ID: u.AccountID}
		a := s.accounts[ref]
		a.Ledger, a.ID = u.Ledger, u.AccountID
		a.DebitsPosted += u.DebitAmount
		a.CreditsPosted += u.CreditAmount
		s.accounts[ref] = a
	}
	items := w.ItemCount()
	s.tokens[w.Token] = items
	return &WriteResult{ItemsWritten: items, ConsumedCapacity: float64(items)}, nil
}

func (s *MemSink) GetAccount(_ context.Context, ledger uint32, id uint64) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountRef{Ledger: ledger, ID: id}]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

// Attempts returns how many TransactWrite calls the sink has seen.
func (s *MemSink) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *MemSink) Close() error { return nil }
