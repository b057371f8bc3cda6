// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopyBytes(t *testing.T) {
	assert.Nil(t, CopyBytes(nil))

	src := []byte("abc")
	dst := CopyBytes(src)
	src[0] = 'x'
	assert.Equal(t, []byte("abc"), dst)
}

func TestStringConversions(t *testing.T) {
	assert.Equal(t, "", BytesToString(nil))
	assert.Equal(t, "key", BytesToString([]byte("key")))
	assert.Nil(t, StringToBytes(""))
	assert.Equal(t, []byte("key"), StringToBytes("key"))
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, StringsToKeys([]string{"a", "b"}))
}
