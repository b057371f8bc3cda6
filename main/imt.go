// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package main

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/bnb-chain/zkbnb-accumulator/imt"
)

var imtCmd = &cli.Command{
	Name:  "imt",
	Usage: "Incremental Merkle Tree operations",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Value: "imt",
			Usage: "tree instance id",
		},
	},
	Subcommands: []*cli.Command{
		imtInitCmd,
		imtUpdateCmd,
		imtProofCmd,
		imtVerifyCmd,
		imtRootCmd,
		imtClearCmd,
	},
}

func imtOptions(cctx *cli.Context, env *environment) []imt.Option {
	return []imt.Option{
		imt.WithID(cctx.String("id")),
		imt.WithLogger(env.log),
		imt.EnableMetrics(env.metrics),
		imt.BatchSizeLimit(env.cfg.IMT.BatchSizeLimit),
	}
}

func openTree(cctx *cli.Context, env *environment) (*imt.Tree, error) {
	return imt.Open(env.hasher, env.db, imtOptions(cctx, env)...)
}

var imtInitCmd = &cli.Command{
	Name:      "init",
	ArgsUsage: "<size>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "null",
			Value: "0x0",
			Usage: "value of an empty leaf",
		},
	},
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		if err := requireArgs(cctx, 1); err != nil {
			return err
		}
		size, err := strconv.ParseUint(cctx.Args().First(), 10, 64)
		if err != nil {
			return errors.Wrapf(err, "size %q", cctx.Args().First())
		}
		tree, err := imt.Initialize(size, cctx.String("null"), env.hasher, env.db, imtOptions(cctx, env)...)
		if err != nil {
			return err
		}
		return printTreeRoot(tree)
	}),
}

var imtUpdateCmd = &cli.Command{
	Name:      "update",
	Usage:     "replace a leaf using the siblings held by the store",
	ArgsUsage: "<index> <value>",
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		if err := requireArgs(cctx, 2); err != nil {
			return err
		}
		indexes, err := parseIndexes(cctx.Args().Slice()[:1])
		if err != nil {
			return err
		}
		tree, err := openTree(cctx, env)
		if err != nil {
			return err
		}
		if _, err := tree.UpdateAuthenticated(indexes[0], cctx.Args().Get(1)); err != nil {
			return err
		}
		return printTreeRoot(tree)
	}),
}

var imtProofCmd = &cli.Command{
	Name:      "proof",
	Usage:     "print an inclusion proof, or a multi proof for several leaves",
	ArgsUsage: "<index>...",
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		if err := requireArgs(cctx, 1); err != nil {
			return err
		}
		indexes, err := parseIndexes(cctx.Args().Slice())
		if err != nil {
			return err
		}
		tree, err := openTree(cctx, env)
		if err != nil {
			return err
		}
		var proof []string
		if len(indexes) == 1 {
			proof, err = tree.GetInclusionProof(indexes[0])
		} else {
			proof, err = tree.GetInclusionMultiProof(indexes)
		}
		if err != nil {
			return err
		}
		return printJSON(proof)
	}),
}

var imtVerifyCmd = &cli.Command{
	Name:      "verify",
	ArgsUsage: "<index> <value> [<index> <value>]...",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "proof",
			Usage: "proof nodes in order",
		},
	},
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		args := cctx.Args().Slice()
		if len(args) < 2 || len(args)%2 != 0 {
			return errors.New("verify expects index and value pairs")
		}
		indexes := make([]uint64, 0, len(args)/2)
		values := make([]string, 0, len(args)/2)
		for i := 0; i < len(args); i += 2 {
			idx, err := parseIndexes(args[i : i+1])
			if err != nil {
				return err
			}
			indexes = append(indexes, idx[0])
			values = append(values, args[i+1])
		}
		tree, err := openTree(cctx, env)
		if err != nil {
			return err
		}
		var ok bool
		if len(indexes) == 1 {
			ok, err = tree.VerifyProof(indexes[0], values[0], cctx.StringSlice("proof"))
		} else {
			ok, err = tree.VerifyMultiProof(indexes, values, cctx.StringSlice("proof"))
		}
		if err != nil {
			return err
		}
		return printJSON(map[string]bool{"valid": ok})
	}),
}

var imtRootCmd = &cli.Command{
	Name: "root",
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		tree, err := openTree(cctx, env)
		if err != nil {
			return err
		}
		return printTreeRoot(tree)
	}),
}

var imtClearCmd = &cli.Command{
	Name: "clear",
	Action: withEnv(func(cctx *cli.Context, env *environment) error {
		tree, err := openTree(cctx, env)
		if err != nil {
			return err
		}
		return tree.Clear()
	}),
}

func printTreeRoot(tree *imt.Tree) error {
	root, err := tree.GetRoot()
	if err != nil {
		return err
	}
	return printJSON(struct {
		ID    string `json:"id"`
		Size  uint64 `json:"size"`
		Depth uint64 `json:"depth"`
		Root  string `json:"root"`
	}{tree.ID(), tree.Size(), tree.Depth(), root})
}
