// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

// Package config loads the accumulator CLI configuration.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/bnb-chain/zkbnb-accumulator/database/dbconfig"
	"github.com/bnb-chain/zkbnb-accumulator/hasher"
)

const (
	Keccak = "keccak"
	SHA256 = "sha256"
	MiMC   = "mimc"
)

var ErrUnknownHasher = errors.New("unknown hasher")

// Config top level struct representing the config of the CLI.
type Config struct {
	Store   dbconfig.DBConfiguration `yaml:"Store"`
	Hasher  HasherConfig             `yaml:"Hasher"`
	Logging LoggingConfig            `yaml:"Logging"`
	Metrics MetricsConfig            `yaml:"Metrics"`
	MMR     MMRConfig                `yaml:"MMR"`
	IMT     IMTConfig                `yaml:"IMT"`
}

type (
	HasherConfig struct {
		Name string `yaml:"Name"`
		// Arity is the exact number of elements hashed at once, 0 for any.
		Arity int `yaml:"Arity"`
		// BlockSizeBits overrides the element bit width when positive.
		BlockSizeBits int `yaml:"BlockSizeBits"`
	}

	LoggingConfig struct {
		Level       string `yaml:"Level"`
		Development bool   `yaml:"Development"`
	}

	MetricsConfig struct {
		Enabled bool   `yaml:"Enabled"`
		Address string `yaml:"Address"`
	}

	MMRConfig struct {
		Parallelism int `yaml:"Parallelism"`
	}

	IMTConfig struct {
		BatchSizeLimit int `yaml:"BatchSizeLimit"`
	}
)

// Default is the configuration used for every field a file leaves unset.
func Default() Config {
	return Config{
		Store:   dbconfig.DBConfiguration{Type: dbconfig.MemoryDB},
		Hasher:  HasherConfig{Name: Keccak, Arity: 2},
		Logging: LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{Address: "127.0.0.1:9090"},
		IMT:     IMTConfig{BatchSizeLimit: 1 << 12},
	}
}

// Load reads a YAML configuration from path on top of Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to read config")
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "problem unmarshaling config")
	}
	return cfg, nil
}

// New builds the configured hasher.
func (c HasherConfig) New() (hasher.Hasher, error) {
	var opts []hasher.Option
	if c.Arity > 0 {
		opts = append(opts, hasher.WithArity(c.Arity))
	}
	if c.BlockSizeBits > 0 {
		opts = append(opts, hasher.WithBlockSizeBits(c.BlockSizeBits))
	}
	switch strings.ToLower(c.Name) {
	case Keccak, "":
		return hasher.NewKeccak(opts...), nil
	case SHA256:
		return hasher.NewSHA256(opts...), nil
	case MiMC:
		return hasher.NewMiMC(opts...), nil
	}
	return nil, errors.Wrapf(ErrUnknownHasher, "%q", c.Name)
}

// NewLogger builds a production logger, or a development one when asked.
func (c LoggingConfig) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "log level %q", c.Level)
		}
		zc.Level = level
	}
	return zc.Build()
}
