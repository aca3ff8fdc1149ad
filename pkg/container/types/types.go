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

package types

import (
	"context"
	"strings"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
)

// T is the oid of a column type.
type T uint8

const (
	// any family
	T_any T = 0

	// bool family
	T_bool T = 10

	// numeric/integer family
	T_int8    T = 20
	T_int16   T = 21
	T_int32   T = 22
	T_int64   T = 23
	T_uint8   T = 25
	T_uint16  T = 26
	T_uint32  T = 27
	T_uint64  T = 28
	T_float32 T = 30
	T_float64 T = 31

	// string family
	T_char    T = 40
	T_varchar T = 41
	T_blob    T = 60
	T_text    T = 61
)

// Type is the type of a column. Size is the width in bytes of one
// value, -1 for variable length types.
type Type struct {
	Oid   T
	Size  int32
	Width int32
}

var typeNames = map[T]string{
	T_any:     "ANY",
	T_bool:    "BOOL",
	T_int8:    "TINYINT",
	T_int16:   "SMALLINT",
	T_int32:   "INT",
	T_int64:   "BIGINT",
	T_uint8:   "TINYINT UNSIGNED",
	T_uint16:  "SMALLINT UNSIGNED",
	T_uint32:  "INT UNSIGNED",
	T_uint64:  "BIGINT UNSIGNED",
	T_float32: "FLOAT",
	T_float64: "DOUBLE",
	T_char:    "CHAR",
	T_varchar: "VARCHAR",
	T_blob:    "BLOB",
	T_text:    "TEXT",
}

// names accepted by FromName besides the sql names above.
var typeAliases = map[string]T{
	"bool":    T_bool,
	"int8":    T_int8,
	"int16":   T_int16,
	"int32":   T_int32,
	"int64":   T_int64,
	"uint8":   T_uint8,
	"uint16":  T_uint16,
	"uint32":  T_uint32,
	"uint64":  T_uint64,
	"float32": T_float32,
	"float64": T_float64,
	"char":    T_char,
	"varchar": T_varchar,
	"string":  T_varchar,
	"blob":    T_blob,
	"text":    T_text,
}

func (t T) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN_TYPE"
}

func (t T) ToType() Type {
	typ := Type{Oid: t}
	switch t {
	case T_bool, T_int8, T_uint8:
		typ.Size = 1
	case T_int16, T_uint16:
		typ.Size = 2
	case T_int32, T_uint32, T_float32:
		typ.Size = 4
	case T_int64, T_uint64, T_float64:
		typ.Size = 8
	case T_char, T_varchar, T_blob, T_text:
		typ.Size = -1
		typ.Width = MaxStringSize
	}
	return typ
}

func (t T) FixedLength() int {
	return int(t.ToType().Size)
}

func (t Type) String() string {
	return t.Oid.String()
}

func (t Type) IsVarlen() bool {
	return t.Size < 0
}

func (t Type) IsUInt() bool {
	switch t.Oid {
	case T_uint8, T_uint16, T_uint32, T_uint64:
		return true
	}
	return false
}

func (t Type) IsInt() bool {
	switch t.Oid {
	case T_int8, T_int16, T_int32, T_int64:
		return true
	}
	return false
}

func (t Type) IsFloat() bool {
	return t.Oid == T_float32 || t.Oid == T_float64
}

func (t Type) Eq(b Type) bool {
	return t.Oid == b.Oid && t.Size == b.Size && t.Width == b.Width
}

// MaxStringSize is the width of a string-like type without explicit width.
const MaxStringSize = 65535

// FromName parses a type name, either the sql name or the go-like alias.
func FromName(ctx context.Context, name string) (Type, error) {
	n := strings.TrimSpace(name)
	if oid, ok := typeAliases[strings.ToLower(n)]; ok {
		return oid.ToType(), nil
	}
	for oid, sqlName := range typeNames {
		if oid != T_any && strings.EqualFold(sqlName, n) {
			return oid.ToType(), nil
		}
	}
	return Type{}, moerr.NewInvalidInput(ctx, "unknown type name %q", name)
}
