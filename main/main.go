// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/bnb-chain/zkbnb-accumulator/config"
	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/database/dbconfig"
	"github.com/bnb-chain/zkbnb-accumulator/hasher"
	"github.com/bnb-chain/zkbnb-accumulator/metrics"
	metricsprom "github.com/bnb-chain/zkbnb-accumulator/metrics/prometheus"
)

//go tool pprof -http :8877 http://localhost:8081/debug/pprof/profile?seconds=10

func main() {
	app := &cli.App{
		Name:  "accumulator",
		Usage: "append to, update and prove against Merkle accumulators",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "serve net/http/pprof on this address",
			},
		},
		Commands: []*cli.Command{
			mmrCmd,
			imtCmd,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type environment struct {
	cfg     config.Config
	db      database.TreeDB
	hasher  hasher.Hasher
	log     *zap.Logger
	metrics metrics.Metrics
	servers []*http.Server
}

func setup(cctx *cli.Context) (*environment, error) {
	cfg := config.Default()
	if path := cctx.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	log, err := cfg.Logging.NewLogger()
	if err != nil {
		return nil, err
	}
	h, err := cfg.Hasher.New()
	if err != nil {
		return nil, err
	}
	db, err := dbconfig.New(cfg.Store)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s store", cfg.Store.Type)
	}

	env := &environment{
		cfg:     cfg,
		db:      db,
		hasher:  h,
		log:     log,
		metrics: metrics.Nop{},
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		env.metrics = metricsprom.NewCollector(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		env.serve(&http.Server{Addr: cfg.Metrics.Address, Handler: mux})
	}
	if addr := cctx.String("pprof"); addr != "" {
		env.serve(&http.Server{Addr: addr, Handler: http.DefaultServeMux})
	}
	return env, nil
}

func (e *environment) serve(s *http.Server) {
	e.servers = append(e.servers, s)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Warn("http server stopped", zap.String("addr", s.Addr), zap.Error(err))
		}
	}()
}

func (e *environment) close() {
	for _, s := range e.servers {
		_ = s.Close()
	}
	if err := e.db.Close(); err != nil {
		e.log.Warn("close store", zap.Error(err))
	}
	_ = e.log.Sync()
}

// withEnv runs action against the configured store and hasher.
func withEnv(action func(cctx *cli.Context, env *environment) error) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		env, err := setup(cctx)
		if err != nil {
			return err
		}
		defer env.close()
		return action(cctx, env)
	}
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func parseIndexes(args []string) ([]uint64, error) {
	indexes := make([]uint64, len(args))
	for i, arg := range args {
		idx, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "index %q", arg)
		}
		indexes[i] = idx
	}
	return indexes, nil
}

func requireArgs(cctx *cli.Context, n int) error {
	if cctx.NArg() < n {
		return errors.Errorf("%s expects at least %d arguments, got %d", cctx.Command.Name, n, cctx.NArg())
	}
	return nil
}
