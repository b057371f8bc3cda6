// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package imt

import "github.com/pkg/errors"

var (
	ErrDuplicateIndex = errors.New("leaf index is listed more than once")

	ErrTreeNotFound = errors.New("no tree is persisted under this id")
)
