// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spill

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/stretchr/testify/require"
)

type scanned struct {
	key      string
	partials [][]byte
}

func scanAll(t *testing.T, s *Store) []scanned {
	var res []scanned
	require.NoError(t, s.Scan(func(key []byte, partials [][]byte) error {
		res = append(res, scanned{key: string(key), partials: partials})
		return nil
	}))
	return res
}

func TestStoreSpillAndScan(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "spill", vfs.NewMem())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.Close())
	}()

	require.Empty(t, scanAll(t, s))

	big := bytes.Repeat([]byte("abcd"), 1024)
	require.NoError(t, s.Spill(
		[][]byte{[]byte("b"), []byte("a"), []byte("long-key")},
		[][]byte{{1}, big, {}}))
	require.NoError(t, s.Spill(
		[][]byte{[]byte("a"), []byte("c")},
		[][]byte{{2}, {3, 3}}))
	require.NoError(t, s.Spill([][]byte{[]byte("b")}, [][]byte{{4}}))
	require.Equal(t, 3, s.Rounds())
	require.Less(t, s.diskBytes, s.rawBytes)

	got := scanAll(t, s)
	require.Len(t, got, 4)
	byKey := make(map[string][][]byte)
	for _, g := range got {
		byKey[g.key] = g.partials
	}
	require.Equal(t, [][]byte{big, {2}}, byKey["a"])
	require.Equal(t, [][]byte{{1}, {4}}, byKey["b"])
	require.Equal(t, [][]byte{{3, 3}}, byKey["c"])
	require.Equal(t, [][]byte{{}}, byKey["long-key"])

	require.Error(t, s.Spill([][]byte{[]byte("x")}, nil))

	stop := moerr.NewInternalError(ctx, "stop")
	err = s.Scan(func([]byte, [][]byte) error { return stop })
	require.Equal(t, stop, err)
}

func TestStoreBlocks(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "blocks", vfs.NewMem())
	require.NoError(t, err)
	defer s.Close()

	for _, state := range [][]byte{{}, {9}, bytes.Repeat([]byte{7}, 300)} {
		v, err := s.compress(state)
		require.NoError(t, err)
		out, err := s.decompress(v)
		require.NoError(t, err)
		require.Equal(t, state, out)
	}

	v, err := s.compress(bytes.Repeat([]byte{7}, 300))
	require.NoError(t, err)
	require.Equal(t, blockLZ4, v[0])

	_, err = s.decompress(nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnexpectedEOF))
	_, err = s.decompress([]byte{5})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
	_, err = s.decompress(v[:len(v)-1])
	require.Error(t, err)
}

func TestRecordKey(t *testing.T) {
	rk := recordKey(nil, []byte("key"), 258)
	require.Equal(t, []byte{3, 'k', 'e', 'y', 0, 0, 0, 0, 0, 0, 1, 2}, rk)
	key, round, ok := parseRecordKey(rk)
	require.True(t, ok)
	require.Equal(t, []byte("key"), key)
	require.Equal(t, uint64(258), round)

	_, _, ok = parseRecordKey(rk[:len(rk)-1])
	require.False(t, ok)
	_, _, ok = parseRecordKey(nil)
	require.False(t, ok)
}

func TestStoreTempDir(t *testing.T) {
	for _, parent := range []string{"", filepath.Join(t.TempDir(), "spill")} {
		s, err := OpenTemp(context.Background(), parent)
		require.NoError(t, err)
		dir := s.dir
		if parent != "" {
			require.Equal(t, parent, filepath.Dir(dir))
		}
		require.NoError(t, s.Spill([][]byte{[]byte("k")}, [][]byte{{1}}))
		require.NoError(t, s.Close())
		_, err = os.Stat(dir)
		require.True(t, os.IsNotExist(err))
	}
}
