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
	"fmt"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/matrixorigin/groupinsert/pkg/container/nulls"
	"github.com/matrixorigin/groupinsert/pkg/container/types"
)

// Vector is a column of one type. Values are held as their native go
// type (see types.IsNativeOf); a const vector holds a single value that
// stands for every row.
type Vector struct {
	typ     types.Type
	col     []any
	nsp     *nulls.Nulls
	isConst bool
	length  int
}

func NewVec(typ types.Type) *Vector {
	return &Vector{
		typ: typ,
		nsp: &nulls.Nulls{},
	}
}

// NewConstNull returns a const vector of length rows, all NULL.
func NewConstNull(typ types.Type, length int) *Vector {
	vec := NewVec(typ)
	vec.isConst = true
	vec.length = length
	vec.col = []any{nil}
	nulls.Add(vec.nsp, 0)
	return vec
}

// NewConstFixed returns a const vector of length rows holding val.
func NewConstFixed(typ types.Type, val any, length int) (*Vector, error) {
	if !types.IsNativeOf(val, typ) {
		return nil, moerr.NewInternalErrorNoCtx("value %v (%T) does not match type %s", val, val, typ)
	}
	vec := NewVec(typ)
	vec.isConst = true
	vec.length = length
	vec.col = []any{val}
	return vec, nil
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) IsConst() bool {
	return v.isConst
}

func (v *Vector) IsConstNull() bool {
	return v.isConst && nulls.Contains(v.nsp, 0)
}

func (v *Vector) Length() int {
	return v.length
}

// GetAny returns the value at row and whether it is NULL.
func (v *Vector) GetAny(row int) (any, bool) {
	if v.isConst {
		row = 0
	}
	if nulls.Contains(v.nsp, uint64(row)) {
		return nil, true
	}
	return v.col[row], false
}

func (v *Vector) String() string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < v.length; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, isNull := v.GetAny(i)
		buf.WriteString(FormatValue(val, isNull))
	}
	buf.WriteByte(']')
	return buf.String()
}

// FormatValue renders one value, string-like values quoted.
func FormatValue(val any, isNull bool) string {
	if isNull {
		return "NULL"
	}
	if bs, ok := val.([]byte); ok {
		return fmt.Sprintf("%q", bs)
	}
	return fmt.Sprintf("%v", val)
}

// AppendAny appends one value, NULL when isNull is true.
func AppendAny(vec *Vector, val any, isNull bool) error {
	if vec.isConst {
		return moerr.NewInternalErrorNoCtx("append to const vector")
	}
	if isNull {
		nulls.Add(vec.nsp, uint64(vec.length))
		val = nil
	} else if !types.IsNativeOf(val, vec.typ) {
		return moerr.NewInternalErrorNoCtx("value %v (%T) does not match type %s", val, val, vec.typ)
	}
	vec.col = append(vec.col, val)
	vec.length++
	return nil
}

// AppendList appends vals; isNulls may be nil when no value is NULL.
func AppendList(vec *Vector, vals []any, isNulls []bool) error {
	for i, val := range vals {
		isNull := isNulls != nil && isNulls[i]
		if err := AppendAny(vec, val, isNull); err != nil {
			return err
		}
	}
	return nil
}
