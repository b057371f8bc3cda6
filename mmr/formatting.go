// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package mmr

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/bnb-chain/zkbnb-accumulator"
	"github.com/bnb-chain/zkbnb-accumulator/hasher"
)

// ValidateFormat requires a 0x prefixed hex null value and a non-negative
// output size.
func ValidateFormat(format Format) error {
	if format.OutputSize < 0 {
		return errors.Wrapf(accumulator.ErrFormatting, "negative output size %d", format.OutputSize)
	}
	if !strings.HasPrefix(format.NullValue, "0x") || len(format.NullValue) == 2 {
		return errors.Wrapf(accumulator.ErrFormatting, "null value %q must be a hex string", format.NullValue)
	}
	if _, err := hasher.Decode(format.NullValue); err != nil {
		return errors.Wrapf(accumulator.ErrFormatting, "null value %q must be a hex string", format.NullValue)
	}
	return nil
}

// FormatProof right pads siblings with the null value up to the output size.
func FormatProof(siblings []string, format Format) ([]string, error) {
	return pad(siblings, format, "proof")
}

// FormatPeaks right pads peaks with the null value up to the output size.
func FormatPeaks(peaks []string, format Format) ([]string, error) {
	return pad(peaks, format, "peaks")
}

func pad(values []string, format Format, what string) ([]string, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	if len(values) > format.OutputSize {
		return nil, errors.Wrapf(accumulator.ErrFormatting, "%s has %d entries, expected at most %d",
			what, len(values), format.OutputSize)
	}
	padded := make([]string, format.OutputSize)
	copy(padded, values)
	for i := len(values); i < format.OutputSize; i++ {
		padded[i] = format.NullValue
	}
	return padded, nil
}

// trimNullValues drops the trailing padding added by pad, keeping at least
// keep values so real siblings equal to the null value survive. The input
// is left untouched.
func trimNullValues(values []string, nullValue string, keep int) []string {
	end := len(values)
	for end > keep && values[end-1] == nullValue {
		end--
	}
	return values[:end:end]
}
