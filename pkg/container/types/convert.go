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
	"fmt"
	"math"
	"strconv"
	"unsafe"

	"golang.org/x/exp/constraints"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
)

// DefaultValue returns the implicit default of typ: zero for numbers,
// false for bool and an empty string for string-like types.
func DefaultValue(typ Type) any {
	switch typ.Oid {
	case T_bool:
		return false
	case T_int8:
		return int8(0)
	case T_int16:
		return int16(0)
	case T_int32:
		return int32(0)
	case T_int64:
		return int64(0)
	case T_uint8:
		return uint8(0)
	case T_uint16:
		return uint16(0)
	case T_uint32:
		return uint32(0)
	case T_uint64:
		return uint64(0)
	case T_float32:
		return float32(0)
	case T_float64:
		return float64(0)
	case T_char, T_varchar, T_blob, T_text:
		return []byte{}
	}
	return nil
}

// ToUint64 reads an unsigned integer value of any width.
func ToUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case uint:
		return uint64(x), true
	}
	return 0, false
}

// ConvertValue converts a literal to the native go value of typ.
// Literals are what a parameter list carries: go integers, floats, bool,
// string or []byte. Integer results are range checked and floats must be
// integral to become integers.
func ConvertValue(ctx context.Context, v any, typ Type) (any, error) {
	if v == nil {
		return nil, moerr.NewTypeConversion(ctx, "NULL", typ.String(), "null literal")
	}
	switch typ.Oid {
	case T_bool:
		return toBool(ctx, v, typ)
	case T_int8:
		return toSigned[int8](ctx, v, typ)
	case T_int16:
		return toSigned[int16](ctx, v, typ)
	case T_int32:
		return toSigned[int32](ctx, v, typ)
	case T_int64:
		return toSigned[int64](ctx, v, typ)
	case T_uint8:
		return toUnsigned[uint8](ctx, v, typ)
	case T_uint16:
		return toUnsigned[uint16](ctx, v, typ)
	case T_uint32:
		return toUnsigned[uint32](ctx, v, typ)
	case T_uint64:
		return toUnsigned[uint64](ctx, v, typ)
	case T_float32:
		f, err := toFloat(ctx, v, typ)
		if err != nil {
			return nil, err
		}
		if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return nil, moerr.NewTypeConversion(ctx, v, typ.String(), "out of range")
		}
		return float32(f), nil
	case T_float64:
		return toFloat(ctx, v, typ)
	case T_char, T_varchar, T_blob, T_text:
		switch x := v.(type) {
		case string:
			return []byte(x), nil
		case []byte:
			return append([]byte{}, x...), nil
		}
		return nil, moerr.NewTypeConversion(ctx, v, typ.String(), fmt.Sprintf("%T is not a string", v))
	}
	return nil, moerr.NewTypeConversion(ctx, v, typ.String(), "unsupported target type")
}

// literal is the normalized form of a numeric literal.
type literal struct {
	neg      bool
	unsigned uint64 // magnitude when the literal is an integer
	float    float64
	isFloat  bool
}

func parseLiteral(ctx context.Context, v any, typ Type) (literal, error) {
	switch x := v.(type) {
	case int:
		return signedLiteral(int64(x)), nil
	case int8:
		return signedLiteral(int64(x)), nil
	case int16:
		return signedLiteral(int64(x)), nil
	case int32:
		return signedLiteral(int64(x)), nil
	case int64:
		return signedLiteral(x), nil
	case uint, uint8, uint16, uint32, uint64:
		u, _ := ToUint64(x)
		return literal{unsigned: u}, nil
	case float32:
		return literal{float: float64(x), isFloat: true}, nil
	case float64:
		return literal{float: x, isFloat: true}, nil
	case bool:
		if x {
			return literal{unsigned: 1}, nil
		}
		return literal{}, nil
	case string:
		return parseStringLiteral(ctx, x, typ)
	case []byte:
		return parseStringLiteral(ctx, string(x), typ)
	}
	return literal{}, moerr.NewTypeConversion(ctx, v, typ.String(), fmt.Sprintf("unsupported literal type %T", v))
}

func signedLiteral(x int64) literal {
	if x < 0 {
		// -(math.MinInt64) overflows int64 but not uint64.
		return literal{neg: true, unsigned: uint64(-(x + 1)) + 1}
	}
	return literal{unsigned: uint64(x)}
}

func parseStringLiteral(ctx context.Context, s string, typ Type) (literal, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return signedLiteral(i), nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return literal{unsigned: u}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return literal{}, moerr.NewTypeConversion(ctx, s, typ.String(), "not a number")
	}
	return literal{float: f, isFloat: true}, nil
}

// integral returns the integer form of a float literal.
func (l literal) integral(ctx context.Context, v any, typ Type) (literal, error) {
	if !l.isFloat {
		return l, nil
	}
	if l.float != math.Trunc(l.float) || math.IsInf(l.float, 0) || math.IsNaN(l.float) {
		return l, moerr.NewTypeConversion(ctx, v, typ.String(), "not an integer")
	}
	if math.Abs(l.float) >= math.MaxUint64 {
		return l, moerr.NewTypeConversion(ctx, v, typ.String(), "out of range")
	}
	if l.float < 0 {
		return literal{neg: true, unsigned: uint64(-l.float)}, nil
	}
	return literal{unsigned: uint64(l.float)}, nil
}

func toSigned[T constraints.Signed](ctx context.Context, v any, typ Type) (any, error) {
	l, err := parseLiteral(ctx, v, typ)
	if err != nil {
		return nil, err
	}
	if l, err = l.integral(ctx, v, typ); err != nil {
		return nil, err
	}
	var t T
	bits := uint(unsafe.Sizeof(t)) * 8
	limit := uint64(1) << (bits - 1)
	if l.neg {
		if l.unsigned > limit {
			return nil, moerr.NewTypeConversion(ctx, v, typ.String(), "out of range")
		}
		return T(-int64(l.unsigned-1) - 1), nil
	}
	if l.unsigned >= limit {
		return nil, moerr.NewTypeConversion(ctx, v, typ.String(), "out of range")
	}
	return T(l.unsigned), nil
}

func toUnsigned[T constraints.Unsigned](ctx context.Context, v any, typ Type) (any, error) {
	l, err := parseLiteral(ctx, v, typ)
	if err != nil {
		return nil, err
	}
	if l, err = l.integral(ctx, v, typ); err != nil {
		return nil, err
	}
	if l.neg {
		return nil, moerr.NewTypeConversion(ctx, v, typ.String(), "negative value")
	}
	var t T
	bits := uint(unsafe.Sizeof(t)) * 8
	if bits < 64 && l.unsigned >= uint64(1)<<bits {
		return nil, moerr.NewTypeConversion(ctx, v, typ.String(), "out of range")
	}
	return T(l.unsigned), nil
}

func toFloat(ctx context.Context, v any, typ Type) (float64, error) {
	l, err := parseLiteral(ctx, v, typ)
	if err != nil {
		return 0, err
	}
	if l.isFloat {
		return l.float, nil
	}
	if l.neg {
		return -float64(l.unsigned), nil
	}
	return float64(l.unsigned), nil
}

func toBool(ctx context.Context, v any, typ Type) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return nil, moerr.NewTypeConversion(ctx, v, typ.String(), "not a bool")
		}
		return b, nil
	}
	l, err := parseLiteral(ctx, v, typ)
	if err != nil {
		return nil, err
	}
	if l.isFloat || l.neg || l.unsigned > 1 {
		return nil, moerr.NewTypeConversion(ctx, v, typ.String(), "not a bool")
	}
	return l.unsigned == 1, nil
}

// IsNativeOf reports whether v holds the native go type of typ.
func IsNativeOf(v any, typ Type) bool {
	var ok bool
	switch typ.Oid {
	case T_bool:
		_, ok = v.(bool)
	case T_int8:
		_, ok = v.(int8)
	case T_int16:
		_, ok = v.(int16)
	case T_int32:
		_, ok = v.(int32)
	case T_int64:
		_, ok = v.(int64)
	case T_uint8:
		_, ok = v.(uint8)
	case T_uint16:
		_, ok = v.(uint16)
	case T_uint32:
		_, ok = v.(uint32)
	case T_uint64:
		_, ok = v.(uint64)
	case T_float32:
		_, ok = v.(float32)
	case T_float64:
		_, ok = v.(float64)
	case T_char, T_varchar, T_blob, T_text:
		_, ok = v.([]byte)
	}
	return ok
}
