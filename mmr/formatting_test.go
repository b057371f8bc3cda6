// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package mmr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/zkbnb-accumulator"
)

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, ValidateFormat(Format{OutputSize: 2, NullValue: "0x0"}))
	for _, nullValue := range []string{"", "0", "0x", "0xzz", "null"} {
		err := ValidateFormat(Format{OutputSize: 2, NullValue: nullValue})
		assert.True(t, errors.Is(err, accumulator.ErrFormatting), "%q", nullValue)
	}
	err := ValidateFormat(Format{OutputSize: -1, NullValue: "0x0"})
	assert.True(t, errors.Is(err, accumulator.ErrFormatting))
}

func TestPadAndTrim(t *testing.T) {
	padded, err := FormatProof([]string{"0xa", "0xb"}, Format{OutputSize: 4, NullValue: "0x0"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xb", "0x0", "0x0"}, padded)
	assert.Equal(t, []string{"0xa", "0xb"}, trimNullValues(padded, "0x0", 0))
	assert.Len(t, padded, 4)

	// only the trailing run is padding
	assert.Equal(t, []string{"0x0", "0xa"}, trimNullValues([]string{"0x0", "0xa", "0x0"}, "0x0", 0))
	// siblings up to the peak height are never padding
	assert.Equal(t, []string{"0xa", "0x0"}, trimNullValues([]string{"0xa", "0x0", "0x0"}, "0x0", 2))

	same, err := FormatPeaks([]string{"0xa"}, Format{OutputSize: 1, NullValue: "0x0"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa"}, same)

	_, err = FormatPeaks([]string{"0xa", "0xb"}, Format{OutputSize: 1, NullValue: "0x0"})
	assert.True(t, errors.Is(err, accumulator.ErrFormatting))
}
