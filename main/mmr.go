// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/bnb-chain/zkbnb-accumulator/mmr"
)

var elementsCountFlag = &cli.Uint64Flag{
	Name:  "elements-count",
	Usage: "answer for the range as it was at this many elements, 0 for the current size",
}

var mmrCmd = &cli.Command{
	Name:  "mmr",
	Usage: "Merkle Mountain Range operations",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Value: "mmr",
			Usage: "range instance id",
		},
	},
	Subcommands: []*cli.Command{
		mmrAppendCmd,
		mmrDraftCmd,
		mmrProofCmd,
		mmrVerifyCmd,
		mmrPeaksCmd,
		mmrRootCmd,
		mmrClearCmd,
	},
}

func openMMR(cctx *cli.Context, env *environment) *mmr.MMR {
	return mmr.New(env.db, env.hasher,
		mmr.WithID(cctx.String("id")),
		mmr.WithLogger(env.log),
		mmr.EnableMetrics(env.metrics),
		mmr.WithParallelism(env.cfg.MMR.Parallelism))
}

var mmrAppendCmd = &cli.Command{
	Name:      "append",
	ArgsUsage: "<value>...",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "genesis",
			Usage: "start an empty range with the hasher genesis element",
		},
	},
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		m := openMMR(cctx, env)
		if cctx.Bool("genesis") {
			var err error
			if m, err = mmr.CreateWithGenesis(env.db, env.hasher,
				mmr.WithID(m.ID()), mmr.WithLogger(env.log), mmr.EnableMetrics(env.metrics)); err != nil {
				return err
			}
		}
		var results []*mmr.AppendResult
		for _, value := range cctx.Args().Slice() {
			result, err := m.Append(value)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return printJSON(results)
	}),
}

var mmrDraftCmd = &cli.Command{
	Name:      "draft",
	Usage:     "append to a draft of the range and print the resulting root",
	ArgsUsage: "<value>...",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "apply",
			Usage: "write the draft into the range instead of discarding it",
		},
	},
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		if err := requireArgs(cctx, 1); err != nil {
			return err
		}
		draft, err := mmr.NewDraft(openMMR(cctx, env), nil)
		if err != nil {
			return err
		}
		var last *mmr.AppendResult
		for _, value := range cctx.Args().Slice() {
			if last, err = draft.Append(value); err != nil {
				return err
			}
		}
		if cctx.Bool("apply") {
			err = draft.Apply(true)
		} else {
			err = draft.Discard()
		}
		if err != nil {
			return err
		}
		return printJSON(struct {
			ParentEndIdx uint64            `json:"parentEndIdx"`
			Applied      bool              `json:"applied"`
			Result       *mmr.AppendResult `json:"result"`
		}{draft.ParentEndIdx(), cctx.Bool("apply"), last})
	}),
}

var mmrProofCmd = &cli.Command{
	Name:      "proof",
	ArgsUsage: "<element index>...",
	Flags:     []cli.Flag{elementsCountFlag},
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		if err := requireArgs(cctx, 1); err != nil {
			return err
		}
		indexes, err := parseIndexes(cctx.Args().Slice())
		if err != nil {
			return err
		}
		proofs, err := openMMR(cctx, env).GetProofs(indexes, &mmr.ProofOptions{
			ElementsCount: cctx.Uint64("elements-count"),
		})
		if err != nil {
			return err
		}
		return printJSON(proofs)
	}),
}

var mmrVerifyCmd = &cli.Command{
	Name:      "verify",
	ArgsUsage: "<value>",
	Flags: []cli.Flag{
		elementsCountFlag,
		&cli.StringFlag{
			Name:     "proof",
			Usage:    "path to a proof printed by the proof command",
			Required: true,
		},
	},
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		if err := requireArgs(cctx, 1); err != nil {
			return err
		}
		raw, err := os.ReadFile(cctx.String("proof"))
		if err != nil {
			return err
		}
		var proof mmr.Proof
		if err := json.Unmarshal(raw, &proof); err != nil {
			// the proof command prints a list
			var proofs []mmr.Proof
			if json.Unmarshal(raw, &proofs) != nil || len(proofs) != 1 {
				return errors.Wrap(err, "decode proof")
			}
			proof = proofs[0]
		}
		ok, err := openMMR(cctx, env).VerifyProof(&proof, cctx.Args().First(), &mmr.ProofOptions{
			ElementsCount: cctx.Uint64("elements-count"),
		})
		if err != nil {
			return err
		}
		return printJSON(map[string]bool{"valid": ok})
	}),
}

var mmrPeaksCmd = &cli.Command{
	Name:  "peaks",
	Flags: []cli.Flag{elementsCountFlag},
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		peaks, err := openMMR(cctx, env).GetPeaks(&mmr.PeaksOptions{
			ElementsCount: cctx.Uint64("elements-count"),
		})
		if err != nil {
			return err
		}
		return printJSON(peaks)
	}),
}

var mmrRootCmd = &cli.Command{
	Name: "root",
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		m := openMMR(cctx, env)
		root, err := m.RootHash()
		if err != nil {
			return err
		}
		elements, err := m.ElementsCount()
		if err != nil {
			return err
		}
		leaves, err := m.LeavesCount()
		if err != nil {
			return err
		}
		return printJSON(struct {
			RootHash      string `json:"rootHash"`
			ElementsCount uint64 `json:"elementsCount"`
			LeavesCount   uint64 `json:"leavesCount"`
		}{root, elements, leaves})
	}),
}

var mmrClearCmd = &cli.Command{
	Name: "clear",
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		return openMMR(cctx, env).Clear()
	}),
}
