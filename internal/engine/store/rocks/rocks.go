// Package rocks keeps account ledgers in a RocksDB scratch directory, for
// inputs whose deposit history does not fit in memory. The directory lives for
// one run only and is destroyed on Close.
package rocks

import (
	"github.com/tecbot/gorocksdb"

	"github.com/chenzhangda16/payments-engine/internal/engine/account"
	"github.com/chenzhangda16/payments-engine/internal/engine/store"
)

var withdrawalMark = []byte{1}

type Store struct {
	path string
	opts *gorocksdb.Options
	db   *gorocksdb.DB
	ro   *gorocksdb.ReadOptions
	wo   *gorocksdb.WriteOptions
}

func Open(path string) (*Store, error) {
	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	opts.SetErrorIfExists(true)
	opts.IncreaseParallelism(2)

	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		opts.Destroy()
		return nil, err
	}

	wo := gorocksdb.NewDefaultWriteOptions()
	// scratch data, a crash loses the run anyway
	wo.DisableWAL(true)

	return &Store{
		path: path,
		opts: opts,
		db:   db,
		ro:   gorocksdb.NewDefaultReadOptions(),
		wo:   wo,
	}, nil
}

// Close releases the handles and removes the directory.
func (s *Store) Close() error {
	if s.ro != nil {
		s.ro.Destroy()
	}
	if s.wo != nil {
		s.wo.Destroy()
	}
	if s.db != nil {
		s.db.Close()
	}
	defer s.opts.Destroy()
	return gorocksdb.DestroyDb(s.path, s.opts)
}

// Ledger returns the view of one client's keys. gorocksdb handles are safe
// for concurrent use, so views of different clients may run in parallel.
func (s *Store) Ledger(client uint16) account.Ledger {
	return &Ledger{s: s, client: client}
}

type Ledger struct {
	s      *Store
	client uint16
}

var _ account.Ledger = (*Ledger)(nil)

func (l *Ledger) Deposit(tx uint32) (account.Entry, bool, error) {
	val, err := l.s.db.Get(l.s.ro, store.KeyDeposit(l.client, tx))
	if err != nil {
		return account.Entry{}, false, err
	}
	defer val.Free()

	if !val.Exists() {
		return account.Entry{}, false, nil
	}
	// val.Data() is owned by RocksDB until Free; DecodeEntry copies what it keeps
	e, err := store.DecodeEntry(val.Data())
	if err != nil {
		return account.Entry{}, false, err
	}
	return e, true, nil
}

func (l *Ledger) PutDeposit(tx uint32, e account.Entry) error {
	return l.s.db.Put(l.s.wo, store.KeyDeposit(l.client, tx), store.EncodeEntry(e))
}

func (l *Ledger) IsWithdrawal(tx uint32) (bool, error) {
	val, err := l.s.db.Get(l.s.ro, store.KeyWithdrawal(l.client, tx))
	if err != nil {
		return false, err
	}
	defer val.Free()
	return val.Exists(), nil
}

func (l *Ledger) MarkWithdrawal(tx uint32) error {
	return l.s.db.Put(l.s.wo, store.KeyWithdrawal(l.client, tx), withdrawalMark)
}
