// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package snippets implements a content-addressed store of shared programs on
// top of LevelDB.
package snippets

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/probechain/probeplay/lang/engine"
)

const (
	// IDLength is the number of hex characters of a snippet id.
	IDLength = 16

	// minCache is the minimum amount of memory in megabytes to allocate to
	// leveldb read and write caching, split half and half.
	minCache = 16

	// minHandles is the minimum number of files handles to allocate to the open
	// database files.
	minHandles = 16
)

// snippetPrefix + id -> source text
var snippetPrefix = []byte("s")

var (
	// ErrNotFound is returned when no snippet has the requested id.
	ErrNotFound = errors.New("snippet not found")

	// ErrEmpty is returned when storing an empty program.
	ErrEmpty = errors.New("empty snippet")
)

// Config selects the backing database.
type Config struct {
	Path    string // database directory; empty keeps snippets in memory
	Cache   int    // megabytes of read/write cache
	Handles int    // open file handles
}

// Store is a persistent snippet database.
type Store struct {
	fn string // filename for reporting
	db *leveldb.DB

	log log.Logger
}

// Open opens the store described by cfg.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return OpenMemory()
	}
	return OpenFile(cfg.Path, cfg.Cache, cfg.Handles)
}

// OpenFile returns a store backed by a LevelDB directory, recovering it if
// the files are corrupted.
func OpenFile(file string, cache int, handles int) (*Store, error) {
	logger := log.New("database", file)

	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	logger.Info("Allocated snippet cache and file handles", "cache", cache, "handles", handles)

	db, err := leveldb.OpenFile(file, &opt.Options{
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, err
	}
	return &Store{fn: file, db: db, log: logger}, nil
}

// OpenMemory returns a store that lives only as long as the process.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Store{fn: "memory", db: db, log: log.New("database", "memory")}, nil
}

// ID returns the id a program is stored under.
func ID(code string) string {
	return engine.SourceHash(code).Hex()[:IDLength]
}

func snippetKey(id string) []byte {
	return append(append([]byte{}, snippetPrefix...), id...)
}

// validID reports whether id has the shape of a snippet id.
func validID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	return strings.Trim(id, "0123456789abcdef") == ""
}

// Put stores code and returns its id. Storing the same code twice yields the
// same id.
func (s *Store) Put(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrEmpty
	}
	id := ID(code)
	if err := s.db.Put(snippetKey(id), []byte(code), nil); err != nil {
		return "", err
	}
	s.log.Debug("Stored snippet", "id", id, "size", len(code))
	return id, nil
}

// Get retrieves the code stored under id.
func (s *Store) Get(id string) (string, error) {
	if !validID(id) {
		return "", ErrNotFound
	}
	dat, err := s.db.Get(snippetKey(id), nil)
	if err == leveldb.ErrNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(dat), nil
}

// Has reports whether a snippet is stored under id.
func (s *Store) Has(id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	return s.db.Has(snippetKey(id), nil)
}

// Delete removes the snippet stored under id, if any.
func (s *Store) Delete(id string) error {
	if !validID(id) {
		return nil
	}
	return s.db.Delete(snippetKey(id), nil)
}

// IDs returns the ids of all stored snippets in key order.
func (s *Store) IDs() ([]string, error) {
	it := s.db.NewIterator(util.BytesPrefix(snippetPrefix), nil)
	defer it.Release()

	var ids []string
	for it.Next() {
		ids = append(ids, string(it.Key()[len(snippetPrefix):]))
	}
	return ids, it.Error()
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		s.log.Error("Failed to close snippet database", "err", err)
		return err
	}
	return nil
}

// Path returns the directory backing the store, "memory" for in-memory stores.
func (s *Store) Path() string { return s.fn }
