package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/user/drover/internal/kv"
)

// PebbleSink stores the ledger in a Pebble database. One atomic batch per
// TransactWrite; a sink-level mutex serializes the read-modify-write of
// account balances against concurrent writers.
type PebbleSink struct {
	db *pebble.DB
	mu sync.Mutex
}

// OpenPebbleSink opens or creates the database under dir.
func OpenPebbleSink(dir string) (*PebbleSink, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		MemTableSize:          16 << 20,
		L0CompactionThreshold: 8,
	})
	if err != nil {
		return nil, fmt.Errorf("open pebble sink: %w", err)
	}
	return &PebbleSink{db: db}, nil
}

func (s *PebbleSink) Close() error {
	return s.db.Close()
}

func (s *PebbleSink) CreateAccounts(_ context.Context, accounts []Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.db.NewBatch()
	defer func() { _ = batch.Close() }()
	for _, a := range accounts {
		enc, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode account %d: %w", a.ID, err)
		}
		if err := batch.Set(kv.AccountKey(a.Ledger, a.ID), enc, pebble.NoSync); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (s *PebbleSink) TransactWrite(_ context.Context, w *Write) (*WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, closer, err := s.db.Get(kv.TokenKey(w.Token)); err == nil {
		items := int(kv.GetUint64BE(v))
		_ = closer.Close()
		return &WriteResult{ItemsWritten: items, Replayed: true}, nil
	} else if err != pebble.ErrNotFound {
		return nil, fmt.Errorf("read token: %w", err)
	}

	for _, t := range w.Puts {
		_, closer, err := s.db.Get(kv.TransferKey(t.ID))
		if err == nil {
			_ = closer.Close()
			return nil, &ConflictError{TransferID: t.ID}
		}
		if err != pebble.ErrNotFound {
			return nil, fmt.Errorf("read transfer %s: %w", t.ID, err)
		}
	}

	batch := s.db.NewBatch()
	defer func() { _ = batch.Close() }()

	for _, t := range w.Puts {
		enc, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("encode transfer %s: %w", t.ID, err)
		}
		if err := batch.Set(kv.TransferKey(t.ID), enc, pebble.NoSync); err != nil {
			return nil, err
		}
	}

	for _, u := range w.Updates {
		a, err := s.getAccountLocked(u.Ledger, u.AccountID)
		if err != nil && err != ErrAccountNotFound {
			return nil, err
		}
		a.Ledger, a.ID = u.Ledger, u.AccountID
		a.DebitsPosted += u.DebitAmount
		a.CreditsPosted += u.CreditAmount
		enc, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encode account %d: %w", a.ID, err)
		}
		if err := batch.Set(kv.AccountKey(a.Ledger, a.ID), enc, pebble.NoSync); err != nil {
			return nil, err
		}
	}

	items := w.ItemCount()
	if err := batch.Set(kv.TokenKey(w.Token), kv.PutUint64BE(nil, uint64(items)), pebble.NoSync); err != nil {
		return nil, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, fmt.Errorf("commit write: %w", err)
	}
	return &WriteResult{ItemsWritten: items, ConsumedCapacity: float64(items)}, nil
}

func (s *PebbleSink) GetAccount(_ context.Context, ledger uint32, id uint64) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAccountLocked(ledger, id)
}

func (s *PebbleSink) getAccountLocked(ledger uint32, id uint64) (Account, error) {
	v, closer, err := s.db.Get(kv.AccountKey(ledger, id))
	if err == pebble.ErrNotFound {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("read account %d: %w", id, err)
	}
	defer func() { _ = closer.Close() }()
	var a Account
	if err := json.Unmarshal(v, &a); err != nil {
		return Account{}, fmt.Errorf("decode account %d: %w", id, err)
	}
	return a, nil
}
