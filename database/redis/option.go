// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// Option configures a *Database.
type Option func(*Database)

// WithNamespace prefixes every key with namespace and a colon.
func WithNamespace(namespace string) Option {
	return func(db *Database) {
		db.namespace = namespace
	}
}

// WithContext runs every command under ctx, so cancelling it aborts pending
// reads and writes.
func WithContext(ctx context.Context) Option {
	return func(db *Database) {
		if ctx != nil {
			db.ctx = ctx
		}
	}
}

func WithHooks(hooks ...redis.Hook) Option {
	return func(db *Database) {
		for _, hook := range hooks {
			db.client.AddHook(hook)
		}
	}
}

// WithSharedPipeliner queues the writes of every batch on pipe.
func WithSharedPipeliner(pipe redis.Pipeliner) Option {
	return func(db *Database) {
		db.sharedPipe = pipe
	}
}

// NewWithSharedPipeliner queues the writes of every batch on one pipeline
// of the database client.
func NewWithSharedPipeliner() Option {
	return func(db *Database) {
		db.sharedPipe = db.client.Pipeline()
	}
}
