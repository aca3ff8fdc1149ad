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

package aggexec

import (
	"context"

	"github.com/gogo/protobuf/proto"
	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/matrixorigin/groupinsert/pkg/container/types"
)

const (
	// MaxArraySize is the exclusive upper bound of a position and of the
	// length of a group array.
	MaxArraySize = 0xFFFFFF

	markerOccupied byte = 0
	markerAbsent   byte = 1
)

// slot is one array position. occupied is independent of whether value is
// the null of its element type.
type slot struct {
	value    any
	occupied bool
}

// insertAtState is the partial result of one group.
// Its length only grows and an occupied slot is never overwritten.
type insertAtState struct {
	slots []slot
}

func (s *insertAtState) size() int {
	return len(s.slots)
}

func (s *insertAtState) grow(n int) {
	if n <= len(s.slots) {
		return
	}
	if n <= cap(s.slots) {
		s.slots = s.slots[:n]
		return
	}
	slots := make([]slot, n, growCap(cap(s.slots), n))
	copy(slots, s.slots)
	s.slots = slots
}

func growCap(old, need int) int {
	c := old * 2
	if c < need {
		c = need
	}
	if c > MaxArraySize {
		c = MaxArraySize
	}
	return c
}

// add records value at pos unless pos is already occupied. Positions at or
// beyond lengthToResize are dropped when lengthToResize is set.
func (s *insertAtState) add(ctx context.Context, cfg *insertAtConfig, value any, pos uint64) error {
	if cfg.lengthToResize != 0 && pos >= cfg.lengthToResize {
		return nil
	}
	if pos >= MaxArraySize {
		return moerr.NewSizeLimitExceeded(ctx, MaxArraySize, "position %d", pos)
	}
	s.grow(int(pos) + 1)
	if s.slots[pos].occupied {
		return nil
	}
	s.slots[pos] = slot{value: value, occupied: true}
	return nil
}

// merge fills the absent slots of s from other. s wins where both are set.
func (s *insertAtState) merge(other *insertAtState) {
	s.grow(len(other.slots))
	for i := range other.slots {
		if !s.slots[i].occupied && other.slots[i].occupied {
			s.slots[i] = other.slots[i]
		}
	}
}

func (s *insertAtState) reset() {
	s.slots = s.slots[:0]
}

// marshal appends the encoding of s to buf:
//
//	uvarint(count) | count * (marker | value when marker is 0)
func (s *insertAtState) marshal(buf []byte, typ types.Type) ([]byte, error) {
	buf = append(buf, proto.EncodeVarint(uint64(len(s.slots)))...)
	var err error
	for i := range s.slots {
		if !s.slots[i].occupied {
			buf = append(buf, markerAbsent)
			continue
		}
		buf = append(buf, markerOccupied)
		if buf, err = types.AppendValue(buf, s.slots[i].value, typ); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// unmarshal replaces s with the state encoded in data and returns the
// number of bytes read.
func (s *insertAtState) unmarshal(ctx context.Context, data []byte, typ types.Type) (int, error) {
	count, n := proto.DecodeVarint(data)
	if n == 0 {
		return 0, moerr.NewUnexpectedEOF(ctx, "group array size")
	}
	if count > MaxArraySize {
		return 0, moerr.NewSizeLimitExceeded(ctx, MaxArraySize, "%d", count)
	}
	// every slot takes at least its marker byte.
	if count > uint64(len(data)-n) {
		return 0, moerr.NewUnexpectedEOF(ctx, "group array slot marker")
	}
	s.reset()
	s.grow(int(count))
	for i := 0; i < int(count); i++ {
		if n >= len(data) {
			return 0, moerr.NewUnexpectedEOF(ctx, "group array slot marker")
		}
		marker := data[n]
		n++
		switch marker {
		case markerAbsent:
			s.slots[i] = slot{}
		case markerOccupied:
			v, m, err := types.ReadValue(data[n:], typ)
			if err != nil {
				return 0, err
			}
			n += m
			s.slots[i] = slot{value: v, occupied: true}
		default:
			return 0, moerr.NewInvalidInput(ctx, "bad group array slot marker %d at %d", marker, i)
		}
	}
	return n, nil
}

// arraySink receives finalized arrays element by element.
type arraySink interface {
	AppendElem(v any) error
	PushOffset(size uint64)
}

// flush emits the final array of s. Its length is lengthToResize when set,
// otherwise the state length. Absent slots and padding get the default.
func (s *insertAtState) flush(cfg *insertAtConfig, sink arraySink) error {
	target := uint64(len(s.slots))
	if cfg.lengthToResize != 0 {
		target = cfg.lengthToResize
	}
	i := uint64(0)
	for ; i < target && i < uint64(len(s.slots)); i++ {
		var v any
		if s.slots[i].occupied {
			v = s.slots[i].value
		} else {
			v = cfg.defaultElem()
		}
		if err := sink.AppendElem(v); err != nil {
			return err
		}
	}
	for ; i < target; i++ {
		if err := sink.AppendElem(cfg.defaultElem()); err != nil {
			return err
		}
	}
	sink.PushOffset(target)
	return nil
}
