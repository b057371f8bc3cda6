// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package redis

import (
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultDialTimeout = 5 * time.Second

// RedisConfig selects cluster mode when ClusterAddr is set and a single
// node at Addr otherwise.
type RedisConfig struct {
	Addr        string   `yaml:"Addr"`
	ClusterAddr []string `yaml:"ClusterAddr"`
	Username    string   `yaml:"Username"`
	Password    string   `yaml:"Password"`
	PoolSize    int      `yaml:"PoolSize"`

	// cluster only
	MaxRedirects   int  `yaml:"MaxRedirects"`
	ReadOnly       bool `yaml:"ReadOnly"`
	RouteByLatency bool `yaml:"RouteByLatency"`
	RouteRandomly  bool `yaml:"RouteRandomly"`

	MaxRetries         int           `yaml:"MaxRetries"`
	MinRetryBackoff    time.Duration `yaml:"MinRetryBackoff"`
	MaxRetryBackoff    time.Duration `yaml:"MaxRetryBackoff"`
	DialTimeout        time.Duration `yaml:"DialTimeout"`
	ReadTimeout        time.Duration `yaml:"ReadTimeout"`
	WriteTimeout       time.Duration `yaml:"WriteTimeout"`
	MinIdleConns       int           `yaml:"MinIdleConns"`
	MaxConnAge         time.Duration `yaml:"MaxConnAge"`
	PoolFIFO           bool          `yaml:"PoolFIFO"`
	PoolTimeout        time.Duration `yaml:"PoolTimeout"`
	IdleTimeout        time.Duration `yaml:"IdleTimeout"`
	IdleCheckFrequency time.Duration `yaml:"IdleCheckFrequency"`
}

func (c *RedisConfig) dialTimeout() time.Duration {
	if c.DialTimeout <= 0 {
		return defaultDialTimeout
	}
	return c.DialTimeout
}

func (c *RedisConfig) newClient() RedisClient {
	if len(c.ClusterAddr) > 0 {
		return redis.NewClusterClient(c.clusterOptions())
	}
	return redis.NewClient(c.options())
}

func (c *RedisConfig) options() *redis.Options {
	return &redis.Options{
		Addr:               c.Addr,
		Username:           c.Username,
		Password:           c.Password,
		PoolSize:           c.PoolSize,
		MaxRetries:         c.MaxRetries,
		MinRetryBackoff:    c.MinRetryBackoff,
		MaxRetryBackoff:    c.MaxRetryBackoff,
		DialTimeout:        c.DialTimeout,
		ReadTimeout:        c.ReadTimeout,
		WriteTimeout:       c.WriteTimeout,
		MinIdleConns:       c.MinIdleConns,
		MaxConnAge:         c.MaxConnAge,
		PoolFIFO:           c.PoolFIFO,
		PoolTimeout:        c.PoolTimeout,
		IdleTimeout:        c.IdleTimeout,
		IdleCheckFrequency: c.IdleCheckFrequency,
	}
}

func (c *RedisConfig) clusterOptions() *redis.ClusterOptions {
	o := c.options()
	return &redis.ClusterOptions{
		Addrs:              c.ClusterAddr,
		MaxRedirects:       c.MaxRedirects,
		ReadOnly:           c.ReadOnly,
		RouteByLatency:     c.RouteByLatency,
		RouteRandomly:      c.RouteRandomly,
		Username:           o.Username,
		Password:           o.Password,
		PoolSize:           o.PoolSize,
		MaxRetries:         o.MaxRetries,
		MinRetryBackoff:    o.MinRetryBackoff,
		MaxRetryBackoff:    o.MaxRetryBackoff,
		DialTimeout:        o.DialTimeout,
		ReadTimeout:        o.ReadTimeout,
		WriteTimeout:       o.WriteTimeout,
		MinIdleConns:       o.MinIdleConns,
		MaxConnAge:         o.MaxConnAge,
		PoolFIFO:           o.PoolFIFO,
		PoolTimeout:        o.PoolTimeout,
		IdleTimeout:        o.IdleTimeout,
		IdleCheckFrequency: o.IdleCheckFrequency,
	}
}
