// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

// Package dbconfig selects and opens a store from configuration.
package dbconfig

import (
	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"

	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/database/badger"
	"github.com/bnb-chain/zkbnb-accumulator/database/boltdb"
	"github.com/bnb-chain/zkbnb-accumulator/database/cached"
	"github.com/bnb-chain/zkbnb-accumulator/database/leveldb"
	"github.com/bnb-chain/zkbnb-accumulator/database/memory"
	"github.com/bnb-chain/zkbnb-accumulator/database/redis"
	"github.com/bnb-chain/zkbnb-accumulator/database/sqlite"
)

const (
	MemoryDB      = "memory"
	LevelDB       = "leveldb"
	RedisDB       = "redis"
	EmbeddedRedis = "redis-embedded"
	BoltDB        = "boltdb"
	BadgerDB      = "badger"
	SQLiteDB      = "sqlite"
)

var ErrUnknownType = errors.New("unknown database type")

type (
	// DBConfiguration describes the store accumulators persist into.
	DBConfiguration struct {
		Type string `yaml:"Type"`
		// Namespace prefixes every key on the stores that support it.
		Namespace string `yaml:"Namespace"`
		// CacheSize wraps the store with an LRU cache of that many entries,
		// a negative value sizes it from the machine memory.
		CacheSize int `yaml:"CacheSize"`

		LevelDBOptions leveldb.Options   `yaml:"LevelDBOptions"`
		RedisOptions   redis.RedisConfig `yaml:"RedisOptions"`
		BoltDBOptions  boltdb.Options    `yaml:"BoltDBOptions"`
		BadgerOptions  badger.Options    `yaml:"BadgerOptions"`
		SQLiteOptions  sqlite.Options    `yaml:"SQLiteOptions"`
	}
)

// New opens the configured store.
func New(cfg DBConfiguration) (database.TreeDB, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize == 0 {
		return db, nil
	}
	size := cfg.CacheSize
	if size < 0 {
		size = cached.DefaultSize()
	}
	return cached.New(db, size)
}

func open(cfg DBConfiguration) (database.TreeDB, error) {
	switch cfg.Type {
	case MemoryDB, "":
		return memory.NewMemoryDB(), nil
	case LevelDB:
		db, err := leveldb.New(cfg.LevelDBOptions)
		if err != nil {
			return nil, errors.Wrap(err, "open leveldb")
		}
		if cfg.Namespace != "" {
			db = leveldb.WrapWithNamespace(db, cfg.Namespace)
		}
		return db, nil
	case RedisDB:
		db, err := redis.New(&cfg.RedisOptions, redis.WithNamespace(cfg.Namespace))
		if err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		return db, nil
	case EmbeddedRedis:
		return openEmbeddedRedis(cfg)
	case BoltDB:
		return boltdb.New(cfg.BoltDBOptions)
	case BadgerDB:
		return badger.New(cfg.BadgerOptions)
	case SQLiteDB:
		return sqlite.New(cfg.SQLiteOptions)
	default:
		return nil, errors.Wrapf(ErrUnknownType, "%q", cfg.Type)
	}
}

// embeddedRedis owns the in-process server backing the store.
type embeddedRedis struct {
	*redis.Database
	server *miniredis.Miniredis
}

func (db *embeddedRedis) Close() error {
	defer db.server.Close()
	return db.Database.Close()
}

func openEmbeddedRedis(cfg DBConfiguration) (database.TreeDB, error) {
	server, err := miniredis.Run()
	if err != nil {
		return nil, errors.Wrap(err, "start embedded redis")
	}
	redisCfg := cfg.RedisOptions
	redisCfg.Addr = server.Addr()
	redisCfg.ClusterAddr = nil
	db, err := redis.New(&redisCfg, redis.WithNamespace(cfg.Namespace))
	if err != nil {
		server.Close()
		return nil, errors.Wrap(err, "connect embedded redis")
	}
	return &embeddedRedis{Database: db, server: server}, nil
}
