// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var (
	bucket1 = "test_ns1"
	testK1  = [3][]byte{[]byte("key_1"), []byte("key_2"), []byte("key_3")}
	testV1  = [3][]byte{[]byte("value_1"), []byte("value_2"), []byte("value_3")}
	testK2  = [3][]byte{[]byte("key_4"), []byte("key_5"), []byte("key_6")}
)

func TestBaseKVStoreBatch(t *testing.T) {
	require := require.New(t)

	b := NewBatch()
	b.Put(bucket1, testK1[0], testV1[0], "failed to put %x", testK1[0])
	b.Delete(bucket1, testK1[1], "")
	require.Equal(2, b.Size())

	w, err := b.Entry(0)
	require.NoError(err)
	require.Equal(bucket1, w.Namespace())
	require.Equal(testK1[0], w.Key())
	require.Equal(testV1[0], w.Value())
	require.Equal(Put, w.WriteType())
	require.Equal("failed to put %x", w.Error())

	w, err = b.Entry(1)
	require.NoError(err)
	require.Equal(Delete, w.WriteType())
	require.Nil(w.Value())

	_, err = b.Entry(2)
	require.Equal(ErrOutOfBound, errors.Cause(err))

	b.Lock()
	b.ClearAndUnlock()
	require.Zero(b.Size())
}

func TestCachedBatch(t *testing.T) {
	require := require.New(t)

	cb := NewCachedBatch()
	cb.Put(bucket1, testK1[0], testV1[0], "")
	v, err := cb.Get(bucket1, testK1[0])
	require.NoError(err)
	require.Equal(testV1[0], v)
	v, err = cb.Get(bucket1, testK2[0])
	require.Equal(ErrNotExist, err)
	require.Nil(v)

	cb.Delete(bucket1, testK2[0], "")
	cb.Delete(bucket1, testK1[0], "")
	_, err = cb.Get(bucket1, testK1[0])
	require.Equal(ErrAlreadyDeleted, errors.Cause(err))

	w, err := cb.Entry(2)
	require.NoError(err)
	require.Equal(bucket1, w.Namespace())
	require.Equal(testK1[0], w.Key())
	require.Equal(Delete, w.WriteType())
	require.Equal(3, cb.Size())

	// a later put resurrects a deleted key
	cb.Put(bucket1, testK1[0], testV1[1], "")
	v, err = cb.Get(bucket1, testK1[0])
	require.NoError(err)
	require.Equal(testV1[1], v)

	cb.Clear()
	require.Zero(cb.Size())
	_, err = cb.Get(bucket1, testK1[0])
	require.Equal(ErrNotExist, err)
}
