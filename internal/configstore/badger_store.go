// Package configstore provides ConfigurationKeyStore implementations:
// a Badger-backed persistent store for the running simulator and an
// in-memory store for tests and short-lived tooling.
package configstore

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"

	"github.com/ahoi-energy/devicemodelsim/internal/devicemodel"
)

const keyPrefix = "cfgkey:"

// prefixed lower-cases keyName before building the storage key so
// lookups are case-insensitive (§3 "Keys are compared
// case-insensitively"); the original casing is preserved separately in
// the stored Entry.Key.
func prefixed(keyName string) []byte {
	return []byte(keyPrefix + strings.ToLower(keyName))
}

// BadgerStore implements devicemodel.ConfigurationKeyStore over an
// embedded Badger database, the teacher's own persistence choice
// (db_utils.go).
type BadgerStore struct {
	db *badger.DB
}

// Open opens (creating if absent) a Badger database at dir.
func Open(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Get(station devicemodel.StationContext, keyName string) (devicemodel.ConfigurationKeyEntry, bool) {
	var entry devicemodel.ConfigurationKeyEntry
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(prefixed(keyName))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	if err != nil {
		log.WithField("station", station.LogPrefix()).
			WithField("key", keyName).
			WithError(err).
			Error("configuration store read failed")
		return devicemodel.ConfigurationKeyEntry{}, false
	}
	return entry, found
}

func (s *BadgerStore) Add(station devicemodel.StationContext, keyName, value string, opts devicemodel.ConfigurationKeyEntry, overwrite bool) error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(prefixed(keyName))
		exists := err == nil
		if exists && !overwrite {
			return nil
		}
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		entry := opts
		entry.Key = keyName
		entry.Value = value

		b, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return txn.Set(prefixed(keyName), b)
	})
}

func (s *BadgerStore) SetValue(station devicemodel.StationContext, keyName, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(prefixed(keyName))
		var entry devicemodel.ConfigurationKeyEntry
		if err != nil {
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			entry = devicemodel.ConfigurationKeyEntry{Visible: true}
		} else if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return err
		}

		entry.Key = keyName
		entry.Value = value

		b, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return txn.Set(prefixed(keyName), b)
	})
}

func (s *BadgerStore) All(station devicemodel.StationContext) []devicemodel.ConfigurationKeyEntry {
	var entries []devicemodel.ConfigurationKeyEntry

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var entry devicemodel.ConfigurationKeyEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.WithField("station", station.LogPrefix()).
			WithError(err).
			Error("configuration store scan failed")
		return nil
	}
	return entries
}
