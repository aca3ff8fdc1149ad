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
	"encoding/binary"
	"os"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/gogo/protobuf/proto"
	"github.com/pierrec/lz4"
	"go.uber.org/zap"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/matrixorigin/groupinsert/pkg/logutil"
)

const (
	blockRaw byte = 0
	blockLZ4 byte = 1

	seqLength = 8

	// lz4 needs a 64K entry hash table per compressor.
	lz4HashTableSize = 1 << 16
)

// Store keeps the partial group states written by successive spill rounds.
//
// A record key is uvarint(len(key)) | key | round (big endian u64), so the
// partials of one group are adjacent and ordered by round.
type Store struct {
	ctx   context.Context
	db    *pebble.DB
	fs    vfs.FS
	dir   string
	owned bool

	round     uint64
	records   int
	rawBytes  int
	diskBytes int

	buf       []byte
	hashTable []int
}

// Open opens a store in dir on fs. A nil fs is the os filesystem.
func Open(ctx context.Context, dir string, fs vfs.FS) (*Store, error) {
	if fs == nil {
		fs = vfs.Default
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	db, err := pebble.Open(dir, &pebble.Options{FS: fs})
	if err != nil {
		return nil, moerr.NewInternalError(ctx, "open spill store %s: %v", dir, err)
	}
	return &Store{
		ctx:       ctx,
		db:        db,
		fs:        fs,
		dir:       dir,
		hashTable: make([]int, lz4HashTableSize),
	}, nil
}

// OpenTemp opens a store in a new directory under parent, or under the
// os temporary directory when parent is empty. Close removes the directory.
func OpenTemp(ctx context.Context, parent string) (*Store, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return nil, moerr.ConvertGoError(ctx, err)
		}
	}
	dir, err := os.MkdirTemp(parent, "insertat-spill-")
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	s, err := Open(ctx, dir, vfs.Default)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	s.owned = true
	return s, nil
}

func recordKey(buf []byte, key []byte, round uint64) []byte {
	buf = append(buf[:0], proto.EncodeVarint(uint64(len(key)))...)
	buf = append(buf, key...)
	var seq [seqLength]byte
	binary.BigEndian.PutUint64(seq[:], round)
	return append(buf, seq[:]...)
}

func parseRecordKey(rk []byte) ([]byte, uint64, bool) {
	l, n := proto.DecodeVarint(rk)
	if n == 0 || uint64(len(rk)-n) != l+seqLength {
		return nil, 0, false
	}
	end := n + int(l)
	return rk[n:end], binary.BigEndian.Uint64(rk[end:]), true
}

func (s *Store) compress(state []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(state))
	out := make([]byte, 0, 1+binary.MaxVarintLen64+bound)
	out = append(out, blockLZ4)
	out = append(out, proto.EncodeVarint(uint64(len(state)))...)
	head := len(out)
	out = out[:head+bound]
	n, err := lz4.CompressBlock(state, out[head:], s.hashTable)
	if err != nil {
		return nil, err
	}
	if n == 0 || n >= len(state) {
		// incompressible
		out = append(out[:0], blockRaw)
		return append(out, state...), nil
	}
	return out[:head+n], nil
}

func (s *Store) decompress(v []byte) ([]byte, error) {
	if len(v) == 0 {
		return nil, moerr.NewUnexpectedEOF(s.ctx, "spill block header")
	}
	switch v[0] {
	case blockRaw:
		return append([]byte{}, v[1:]...), nil
	case blockLZ4:
		l, n := proto.DecodeVarint(v[1:])
		if n == 0 {
			return nil, moerr.NewUnexpectedEOF(s.ctx, "spill block length")
		}
		out := make([]byte, l)
		m, err := lz4.UncompressBlock(v[1+n:], out)
		if err != nil {
			return nil, moerr.NewInvalidInput(s.ctx, "spill block: %v", err)
		}
		if uint64(m) != l {
			return nil, moerr.NewInvalidInput(s.ctx, "spill block has %d bytes, expected %d", m, l)
		}
		return out, nil
	}
	return nil, moerr.NewInvalidInput(s.ctx, "spill block kind %d", v[0])
}

// Spill writes one round of partial states, states[i] belonging to keys[i].
func (s *Store) Spill(keys, states [][]byte) error {
	if len(keys) != len(states) {
		return moerr.NewInternalError(s.ctx, "spill %d keys with %d states", len(keys), len(states))
	}
	start := time.Now()
	b := s.db.NewBatch()
	defer b.Close()

	diskBytes := 0
	for i := range keys {
		v, err := s.compress(states[i])
		if err != nil {
			return moerr.NewInternalError(s.ctx, "compress spill state: %v", err)
		}
		s.buf = recordKey(s.buf, keys[i], s.round)
		if err = b.Set(s.buf, v, nil); err != nil {
			return moerr.ConvertGoError(s.ctx, err)
		}
		s.rawBytes += len(states[i])
		diskBytes += len(v)
	}
	if err := b.Commit(pebble.NoSync); err != nil {
		return moerr.ConvertGoError(s.ctx, err)
	}
	s.diskBytes += diskBytes
	s.records += len(keys)
	logutil.Debug("spill round written",
		zap.Uint64("round", s.round),
		zap.Int("groups", len(keys)),
		zap.Int("bytes", diskBytes),
		zap.Duration("duration", time.Since(start)))
	s.round++
	return nil
}

// Scan calls fn once per spilled key with its partial states in round
// order. fn must not keep key.
func (s *Store) Scan(fn func(key []byte, partials [][]byte) error) error {
	iter := s.db.NewIter(&pebble.IterOptions{})
	defer iter.Close()

	var cur []byte
	var partials [][]byte
	flush := func() error {
		if partials == nil {
			return nil
		}
		err := fn(cur, partials)
		partials = nil
		return err
	}
	for valid := iter.First(); valid; valid = iter.Next() {
		key, _, ok := parseRecordKey(iter.Key())
		if !ok {
			return moerr.NewInvalidInput(s.ctx, "bad spill record key %x", iter.Key())
		}
		if partials != nil && !bytes.Equal(key, cur) {
			if err := flush(); err != nil {
				return err
			}
		}
		if partials == nil {
			cur = append(cur[:0], key...)
		}
		state, err := s.decompress(iter.Value())
		if err != nil {
			return err
		}
		partials = append(partials, state)
	}
	if err := iter.Error(); err != nil {
		return moerr.ConvertGoError(s.ctx, err)
	}
	return flush()
}

// Rounds returns the number of spill rounds written.
func (s *Store) Rounds() int {
	return int(s.round)
}

func (s *Store) Close() error {
	err := s.db.Close()
	logutil.Info("spill store closed",
		zap.String("dir", s.dir),
		zap.Uint64("rounds", s.round),
		zap.Int("records", s.records),
		zap.Int("raw-bytes", s.rawBytes),
		zap.Int("disk-bytes", s.diskBytes))
	if s.owned {
		if rerr := os.RemoveAll(s.dir); err == nil {
			err = rerr
		}
	}
	if err != nil {
		return moerr.ConvertGoError(s.ctx, err)
	}
	return nil
}
