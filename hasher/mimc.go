// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package hasher

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/pkg/errors"
)

const fieldBits = 254

// MiMC hashes BN254 scalar field elements, the arithmetic friendly option
// for trees whose proofs are checked inside circuits.
type MiMC struct {
	opts Options
}

func NewMiMC(opts ...Option) *MiMC {
	return &MiMC{opts: newOptions(fieldBits, opts)}
}

func (h *MiMC) Hash(elements []string) (string, error) {
	if err := h.opts.checkArity(len(elements)); err != nil {
		return "", err
	}
	d := mimc.NewMiMC()
	for _, element := range elements {
		v, err := h.toField(element)
		if err != nil {
			return "", err
		}
		var x fr.Element
		x.SetBigInt(v)
		buf := x.Bytes()
		if _, err := d.Write(buf[:]); err != nil {
			return "", err
		}
	}
	return "0x" + new(big.Int).SetBytes(d.Sum(nil)).Text(16), nil
}

func (h *MiMC) toField(element string) (*big.Int, error) {
	b, err := Decode(element)
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(b)
	if v.BitLen() > h.opts.BlockSizeBits || v.Cmp(fr.Modulus()) >= 0 {
		return nil, errors.Wrapf(ErrElementTooBig, "%s is not a field element", element)
	}
	return v, nil
}

func (h *MiMC) HashSingle(element string) (string, error) {
	return h.Hash([]string{element})
}

func (h *MiMC) IsElementSizeValid(element string) bool {
	_, err := h.toField(element)
	return err == nil
}

func (h *MiMC) Genesis() (string, error) {
	return genesis(h)
}
