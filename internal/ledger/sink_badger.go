package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/user/drover/internal/kv"
)

// BadgerSink stores the ledger in a Badger database, one read-write
// transaction per TransactWrite.
type BadgerSink struct {
	db *badger.DB
}

// OpenBadgerSink opens or creates the database under dir.
func OpenBadgerSink(dir string) (*BadgerSink, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger sink: %w", err)
	}
	return &BadgerSink{db: db}, nil
}

func (s *BadgerSink) Close() error {
	return s.db.Close()
}

func (s *BadgerSink) CreateAccounts(_ context.Context, accounts []Account) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, a := range accounts {
			enc, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("encode account %d: %w", a.ID, err)
			}
			if err := txn.Set(kv.AccountKey(a.Ledger, a.ID), enc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerSink) TransactWrite(_ context.Context, w *Write) (*WriteResult, error) {
	var result *WriteResult
	err := s.db.Update(func(txn *badger.Txn) error {
		if item, err := txn.Get(kv.TokenKey(w.Token)); err == nil {
			return item.Value(func(v []byte) error {
				result = &WriteResult{ItemsWritten: int(kv.GetUint64BE(v)), Replayed: true}
				return nil
			})
		} else if err != badger.ErrKeyNotFound {
			return fmt.Errorf("read token: %w", err)
		}

		for _, t := range w.Puts {
			_, err := txn.Get(kv.TransferKey(t.ID))
			if err == nil {
				return &ConflictError{TransferID: t.ID}
			}
			if err != badger.ErrKeyNotFound {
				return fmt.Errorf("read transfer %s: %w", t.ID, err)
			}
		}

		for _, t := range w.Puts {
			enc, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("encode transfer %s: %w", t.ID, err)
			}
			if err := txn.Set(kv.TransferKey(t.ID), enc); err != nil {
				return err
			}
		}

		for _, u := range w.Updates {
			a, err := getBadgerAccount(txn, u.Ledger, u.AccountID)
			if err != nil && err != ErrAccountNotFound {
				return err
			}
			a.Ledger, a.ID = u.Ledger, u.AccountID
			a.DebitsPosted += u.DebitAmount
			a.CreditsPosted += u.CreditAmount
			enc, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("encode account %d: %w", a.ID, err)
			}
			if err := txn.Set(kv.AccountKey(a.Ledger, a.ID), enc); err != nil {
				return err
			}
		}

		items := w.ItemCount()
		if err := txn.Set(kv.TokenKey(w.Token), kv.PutUint64BE(nil, uint64(items))); err != nil {
			return err
		}
		result = &WriteResult{ItemsWritten: items, ConsumedCapacity: float64(items)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BadgerSink) GetAccount(_ context.Context, ledger uint32, id uint64) (Account, error) {
	var a Account
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := getBadgerAccount(txn, ledger, id)
		if err != nil {
			return err
		}
		a = got
		return nil
	})
	return a, err
}

func getBadgerAccount(txn *badger.Txn, ledger uint32, id uint64) (Account, error) {
	item, err := txn.Get(kv.AccountKey(ledger, id))
	if err == badger.ErrKeyNotFound {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("read account %d: %w", id, err)
	}
	var a Account
	err = item.Value(func(v []byte) error {
		return json.Unmarshal(v, &a)
	})
	if err != nil {
		return Account{}, fmt.Errorf("decode account %d: %w", id, err)
	}
	return a, nil
}
