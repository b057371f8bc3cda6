// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

// Package metadata maps the named fields and node tables of an accumulator
// onto keys of a store.
package metadata

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/bnb-chain/zkbnb-accumulator/database"
)

const separator = ":"

var ErrInvalidCounter = errors.New("metadata: counter is not a decimal number")

// Key joins key parts with the namespace separator.
func Key(parts ...string) string {
	return strings.Join(parts, separator)
}

// Counter is an unsigned integer stored as a decimal string.
type Counter struct {
	db  database.TreeDB
	key string
}

func NewCounter(db database.TreeDB, key string) *Counter {
	return &Counter{db: db, key: key}
}

func (c *Counter) Key() string {
	return c.key
}

// Get returns 0 when the counter was never set.
func (c *Counter) Get() (uint64, error) {
	raw, err := c.db.Get([]byte(c.key))
	if errors.Is(err, database.ErrDatabaseNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return ParseCounter(raw)
}

func (c *Counter) Set(n uint64) error {
	return c.db.Set([]byte(c.key), EncodeCounter(n))
}

// Increment adds one and returns the new count. It is not atomic with
// respect to other writers.
func (c *Counter) Increment() (uint64, error) {
	n, err := c.Get()
	if err != nil {
		return 0, err
	}
	n++
	return n, c.Set(n)
}

func (c *Counter) Delete() error {
	return c.db.Delete([]byte(c.key))
}

func EncodeCounter(n uint64) []byte {
	return []byte(strconv.FormatUint(n, 10))
}

func ParseCounter(raw []byte) (uint64, error) {
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidCounter, "%q", raw)
	}
	return n, nil
}

// Value is a single string field.
type Value struct {
	db  database.TreeDB
	key string
}

func NewValue(db database.TreeDB, key string) *Value {
	return &Value{db: db, key: key}
}

func (v *Value) Key() string {
	return v.key
}

func (v *Value) Get() (string, bool, error) {
	raw, err := v.db.Get([]byte(v.key))
	if errors.Is(err, database.ErrDatabaseNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(raw), true, nil
}

func (v *Value) Set(value string) error {
	return v.db.Set([]byte(v.key), []byte(value))
}

func (v *Value) Delete() error {
	return v.db.Delete([]byte(v.key))
}
