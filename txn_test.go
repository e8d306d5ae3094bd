// Copyright 2025 The cbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package cbkit

import (
	"testing"

	gocb "github.com/couchbase/gocb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTransfer(t *testing.T) {
	src := map[string]interface{}{"balance": 100.0}
	dst := map[string]interface{}{"balance": 10.0}

	require.NoError(t, applyTransfer(src, dst, "balance", 25))
	assert.Equal(t, 75.0, src["balance"])
	assert.Equal(t, 35.0, dst["balance"])
}

func TestApplyTransferMissingDestinationField(t *testing.T) {
	src := map[string]interface{}{"balance": 40.0}
	dst := map[string]interface{}{}

	require.NoError(t, applyTransfer(src, dst, "balance", 40))
	assert.Equal(t, 0.0, src["balance"])
	assert.Equal(t, 40.0, dst["balance"])
}

func TestApplyTransferInsufficient(t *testing.T) {
	src := map[string]interface{}{"balance": 10.0}
	dst := map[string]interface{}{"balance": 0.0}

	err := applyTransfer(src, dst, "balance", 25)
	require.ErrorIs(t, err, ErrInsufficientValue)
	// Neither side moved.
	assert.Equal(t, 10.0, src["balance"])
	assert.Equal(t, 0.0, dst["balance"])
}

func TestApplyTransferInvalidInputs(t *testing.T) {
	src := map[string]interface{}{"balance": 10.0}
	dst := map[string]interface{}{"balance": 0.0}

	err := applyTransfer(src, dst, "balance", 0)
	assert.ErrorIs(t, err, gocb.ErrInvalidArgument)

	err = applyTransfer(src, dst, "balance", -5)
	assert.ErrorIs(t, err, gocb.ErrInvalidArgument)

	err = applyTransfer(map[string]interface{}{"balance": "oops"}, dst, "balance", 5)
	assert.ErrorIs(t, err, gocb.ErrInvalidArgument)

	err = applyTransfer(map[string]interface{}{}, dst, "balance", 5)
	assert.ErrorIs(t, err, gocb.ErrInvalidArgument)
}
