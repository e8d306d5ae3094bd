// Copyright 2025 The cbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package cbkit

import (
	"errors"
	"fmt"
	"testing"

	gocb "github.com/couchbase/gocb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"not found", gocb.ErrDocumentNotFound, KindNotFound},
		{"exists", gocb.ErrDocumentExists, KindExists},
		{"cas mismatch", gocb.ErrCasMismatch, KindCasMismatch},
		{"timeout", gocb.ErrTimeout, KindTimeout},
		{"parsing", gocb.ErrParsingFailure, KindParsing},
		{"service not available", gocb.ErrServiceNotAvailable, KindUnavailable},
		{"temporary failure", gocb.ErrTemporaryFailure, KindUnavailable},
		{"auth", gocb.ErrAuthenticationFailure, KindAuth},
		{"invalid argument", gocb.ErrInvalidArgument, KindInvalidArgument},
		{"path not found", gocb.ErrPathNotFound, KindPathNotFound},
		{"key too long", ErrKeyTooLong, KindInvalidArgument},
		{"key list too long", ErrKeyListTooLong, KindInvalidArgument},
		{"too many subdoc ops", ErrTooManySubdocOps, KindInvalidArgument},
		{"unrelated", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassifyWrapped(t *testing.T) {
	// Classification must see through the kit's own wrappers.
	err := &OpError{Op: "get", Key: "k", Err: fmt.Errorf("inner: %w", gocb.ErrDocumentNotFound)}
	assert.Equal(t, KindNotFound, Classify(err))

	cerr := &ConnectionError{Endpoint: "localhost", Err: gocb.ErrTimeout}
	assert.Equal(t, KindTimeout, Classify(cerr))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(gocb.ErrTimeout))
	assert.True(t, IsTransient(gocb.ErrTemporaryFailure))
	assert.True(t, IsTransient(gocb.ErrServiceNotAvailable))

	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(gocb.ErrDocumentNotFound))
	assert.False(t, IsTransient(gocb.ErrDocumentExists))
	assert.False(t, IsTransient(gocb.ErrCasMismatch))
	assert.False(t, IsTransient(gocb.ErrParsingFailure))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "document_not_found", KindNotFound.String())
	assert.Equal(t, "cas_mismatch", KindCasMismatch.String())
	assert.Equal(t, "transaction_commit_ambiguous", KindTxnAmbiguous.String())
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "unknown", Kind(999).String())
}

func TestOpError(t *testing.T) {
	err := &OpError{Op: "upsert", Key: "airline_10", Err: gocb.ErrTimeout}
	assert.Contains(t, err.Error(), "upsert")
	assert.Contains(t, err.Error(), "airline_10")
	require.ErrorIs(t, err, gocb.ErrTimeout)

	bare := &OpError{Op: "query", Err: gocb.ErrParsingFailure}
	assert.NotContains(t, bare.Error(), `""`)
	require.ErrorIs(t, bare, gocb.ErrParsingFailure)
}
