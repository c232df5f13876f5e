package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/zarko379/iMangarr-ng/internal/domain"
)

// LoadLibrary returns all entries in insertion order.
func (s *Store) LoadLibrary(_ context.Context) ([]domain.Entry, error) {
	entries := []domain.Entry{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = entryPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(entryPrefix); it.ValidForPrefix(entryPrefix); it.Next() {
			item := it.Item()
			var entry domain.Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return &CorruptError{Location: string(item.KeyCopy(nil)), Err: err}
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load library: %w", err)
	}

	return entries, nil
}

// SaveLibrary replaces the library in a single transaction.
func (s *Store) SaveLibrary(_ context.Context, entries []domain.Entry) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefixInTxn(txn, libraryPrefix); err != nil {
			return err
		}

		for i, entry := range entries {
			if err := putEntryInTxn(txn, uint64(i), entry); err != nil {
				return err
			}
		}
		return txn.Set(libraryNextKey, encodePosition(uint64(len(entries))))
	})
	if err != nil {
		return fmt.Errorf("failed to save library: %w", err)
	}
	return nil
}

// AppendEntry adds entry after the last one.
func (s *Store) AppendEntry(_ context.Context, entry domain.Entry) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		exists, err := existsInTxn(txn, entryIndexKey(entry.ID))
		if err != nil {
			return err
		}
		if exists {
			return ErrEntryExists
		}

		next, err := nextPositionInTxn(txn)
		if err != nil {
			return err
		}
		if err := putEntryInTxn(txn, next, entry); err != nil {
			return err
		}
		return txn.Set(libraryNextKey, encodePosition(next+1))
	})
	if errors.Is(err, ErrEntryExists) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to append entry %s: %w", entry.ID, err)
	}

	if s.logger != nil {
		s.logger.Debug("Library entry appended", "manga_id", entry.ID)
	}
	return nil
}

func putEntryInTxn(txn *badger.Txn, position uint64, entry domain.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := txn.Set(entryKey(position), data); err != nil {
		return err
	}
	return txn.Set(entryIndexKey(entry.ID), encodePosition(position))
}

func nextPositionInTxn(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(libraryNextKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var next uint64
	err = item.Value(func(val []byte) error {
		next, err = decodePosition(val)
		return err
	})
	return next, err
}
