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

package vector

import (
	"bytes"

	"github.com/matrixorigin/groupinsert/pkg/container/types"
)

// ArrayVector is a column of arrays: one flat element vector and the
// offsets that cut it, offsets[i] and offsets[i+1] bound the i-th array.
type ArrayVector struct {
	elem    *Vector
	offsets []uint64
}

func NewArrayVec(elemType types.Type) *ArrayVector {
	return &ArrayVector{
		elem:    NewVec(elemType),
		offsets: []uint64{0},
	}
}

// AppendElem adds one element to the array under construction.
func (av *ArrayVector) AppendElem(val any) error {
	return AppendAny(av.elem, val, false)
}

// PushOffset closes the array under construction, which has size elements.
func (av *ArrayVector) PushOffset(size uint64) {
	av.offsets = append(av.offsets, av.offsets[len(av.offsets)-1]+size)
}

func (av *ArrayVector) AppendArray(vals []any) error {
	for _, val := range vals {
		if err := av.AppendElem(val); err != nil {
			return err
		}
	}
	av.PushOffset(uint64(len(vals)))
	return nil
}

// Length returns the number of arrays.
func (av *ArrayVector) Length() int {
	return len(av.offsets) - 1
}

func (av *ArrayVector) GetArrayAt(i int) []any {
	start, end := av.offsets[i], av.offsets[i+1]
	return av.elem.col[start:end]
}

func (av *ArrayVector) Offsets() []uint64 {
	return av.offsets
}

func (av *ArrayVector) Elem() *Vector {
	return av.elem
}

func (av *ArrayVector) ArrayString(i int) string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for j, val := range av.GetArrayAt(i) {
		if j > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(FormatValue(val, false))
	}
	buf.WriteByte(']')
	return buf.String()
}
