// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package sqlite

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/utils"
)

var (
	_ database.TreeDB  = (*Database)(nil)
	_ database.Batcher = (*batch)(nil)
)

// maxQueryKeys keeps IN lists below the sqlite host parameter limit.
const maxQueryKeys = 500

// Options configures a sqlite backed store.
type Options struct {
	FilePath string `yaml:"FilePath"`
}

// kvEntry is a row of the store table.
type kvEntry struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value []byte `gorm:"column:value"`
}

func (kvEntry) TableName() string {
	return "store"
}

type Database struct {
	db *gorm.DB
}

func New(cfg Options) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(cfg.FilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return NewFromExistGormDB(db)
}

// NewFromExistGormDB migrates the store table on an open connection.
func NewFromExistGormDB(db *gorm.DB) (*Database, error) {
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, errors.Wrap(err, "migrate store table")
	}
	return &Database{db: db}, nil
}

func keyEq(key []byte) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: "key"}, Value: string(key)}
}

func (db *Database) Has(key []byte) (bool, error) {
	var count int64
	if err := db.db.Model(&kvEntry{}).Where(keyEq(key)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *Database) Get(key []byte) ([]byte, error) {
	var entry kvEntry
	err := db.db.Where(keyEq(key)).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrDatabaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (db *Database) GetMany(keys [][]byte) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))
	for _, chunk := range lo.Chunk(keys, maxQueryKeys) {
		in := lo.Map(chunk, func(key []byte, _ int) interface{} {
			return string(key)
		})
		var entries []kvEntry
		err := db.db.Where(clause.IN{Column: clause.Column{Name: "key"}, Values: in}).Find(&entries).Error
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			values[entry.Key] = entry.Value
		}
	}
	return values, nil
}

func set(tx *gorm.DB, key, value []byte) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&kvEntry{Key: string(key), Value: value}).Error
}

func del(tx *gorm.DB, key []byte) error {
	return tx.Where(keyEq(key)).Delete(&kvEntry{}).Error
}

func (db *Database) Set(key []byte, value []byte) error {
	return set(db.db, key, value)
}

func (db *Database) Delete(key []byte) error {
	return del(db.db, key)
}

func (db *Database) NewBatch() database.Batcher {
	return &batch{db: db.db}
}

func (db *Database) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type keyvalue struct {
	key    []byte
	value  []byte
	delete bool
}

// batch applies its writes in one sql transaction.
type batch struct {
	db     *gorm.DB
	writes []keyvalue
	size   int
}

func (b *batch) Set(key, value []byte) error {
	b.writes = append(b.writes, keyvalue{utils.CopyBytes(key), utils.CopyBytes(value), false})
	b.size += len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.writes = append(b.writes, keyvalue{utils.CopyBytes(key), nil, true})
	b.size += len(key)
	return nil
}

func (b *batch) Write() error {
	if len(b.writes) == 0 {
		return nil
	}
	return b.db.Transaction(func(tx *gorm.DB) error {
		for _, kv := range b.writes {
			var err error
			if kv.delete {
				err = del(tx, kv.key)
			} else {
				err = set(tx, kv.key, kv.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *batch) ValueSize() int {
	return b.size
}

func (b *batch) Reset() {
	b.writes = b.writes[:0]
	b.size = 0
}
