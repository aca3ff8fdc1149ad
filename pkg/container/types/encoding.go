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
	"encoding/binary"
	"math"

	"github.com/gogo/protobuf/proto"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
)

// AppendValue appends the binary form of v to buf. Fixed width values are
// little endian, string-like values are a uvarint length followed by the
// bytes. v must hold the native go type of typ.
func AppendValue(buf []byte, v any, typ Type) ([]byte, error) {
	switch typ.Oid {
	case T_bool:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch(v, typ)
		}
		if b {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case T_int8:
		x, ok := v.(int8)
		if !ok {
			return nil, mismatch(v, typ)
		}
		return append(buf, byte(x)), nil
	case T_uint8:
		x, ok := v.(uint8)
		if !ok {
			return nil, mismatch(v, typ)
		}
		return append(buf, x), nil
	case T_int16:
		x, ok := v.(int16)
		if !ok {
			return nil, mismatch(v, typ)
		}
		return appendUint16(buf, uint16(x)), nil
	case T_uint16:
		x, ok := v.(uint16)
		if !ok {
			return nil, mismatch(v, typ)
		}
		return appendUint16(buf, x), nil
	case T_int32:
		x, ok := v.(int32)
		if !ok {
			return nil, mismatch(v, typ)
		}
		return appendUint32(buf, uint32(x)), nil
	case T_uint32:
		x, ok := v.(uint32)
		if !ok {
			return nil, mismatch(v, typ)
		}
		return appendUint32(buf, x), nil
	case T_int64:
		x, ok := v.(int64)
		if !ok {
			return nil, mismatch(v, typ)
		}
		return appendUint64(buf, uint64(x)), nil
	case T_uint64:
		x, ok := v.(uint64)
		if !ok {
			return nil, mismatch(v, typ)
		}
		return appendUint64(buf, x), nil
	case T_float32:
		x, ok := v.(float32)
		if !ok {
			return nil, mismatch(v, typ)
		}
		return appendUint32(buf, math.Float32bits(x)), nil
	case T_float64:
		x, ok := v.(float64)
		if !ok {
			return nil, mismatch(v, typ)
		}
		return appendUint64(buf, math.Float64bits(x)), nil
	case T_char, T_varchar, T_blob, T_text:
		x, ok := v.([]byte)
		if !ok {
			return nil, mismatch(v, typ)
		}
		buf = append(buf, proto.EncodeVarint(uint64(len(x)))...)
		return append(buf, x...), nil
	}
	return nil, moerr.NewNotSupported(moerr.Context(), "binary encoding of type %s", typ)
}

// ReadValue decodes one value of typ from the head of data and returns it
// with the number of bytes consumed.
func ReadValue(data []byte, typ Type) (any, int, error) {
	if typ.IsVarlen() {
		switch typ.Oid {
		case T_char, T_varchar, T_blob, T_text:
		default:
			return nil, 0, moerr.NewNotSupported(moerr.Context(), "binary decoding of type %s", typ)
		}
		l, n := proto.DecodeVarint(data)
		if n == 0 {
			return nil, 0, moerr.NewUnexpectedEOF(moerr.Context(), "string length of "+typ.String())
		}
		if uint64(len(data)-n) < l {
			return nil, 0, moerr.NewUnexpectedEOF(moerr.Context(), "string body of "+typ.String())
		}
		v := make([]byte, l)
		copy(v, data[n:n+int(l)])
		return v, n + int(l), nil
	}

	sz := int(typ.Size)
	if sz <= 0 {
		return nil, 0, moerr.NewNotSupported(moerr.Context(), "binary decoding of type %s", typ)
	}
	if len(data) < sz {
		return nil, 0, moerr.NewUnexpectedEOF(moerr.Context(), "value of "+typ.String())
	}
	var v any
	switch typ.Oid {
	case T_bool:
		if data[0] > 1 {
			return nil, 0, moerr.NewInvalidInputNoCtx("bad bool byte %d", data[0])
		}
		v = data[0] == 1
	case T_int8:
		v = int8(data[0])
	case T_uint8:
		v = data[0]
	case T_int16:
		v = int16(binary.LittleEndian.Uint16(data))
	case T_uint16:
		v = binary.LittleEndian.Uint16(data)
	case T_int32:
		v = int32(binary.LittleEndian.Uint32(data))
	case T_uint32:
		v = binary.LittleEndian.Uint32(data)
	case T_int64:
		v = int64(binary.LittleEndian.Uint64(data))
	case T_uint64:
		v = binary.LittleEndian.Uint64(data)
	case T_float32:
		v = math.Float32frombits(binary.LittleEndian.Uint32(data))
	case T_float64:
		v = math.Float64frombits(binary.LittleEndian.Uint64(data))
	default:
		return nil, 0, moerr.NewNotSupported(moerr.Context(), "binary decoding of type %s", typ)
	}
	return v, sz, nil
}

func mismatch(v any, typ Type) error {
	return moerr.NewInternalErrorNoCtx("value %v (%T) does not match type %s", v, v, typ)
}

func appendUint16(buf []byte, x uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], x)
	return append(buf, b[:]...)
}

func appendUint32(buf []byte, x uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], x)
	return append(buf, b[:]...)
}

func appendUint64(buf []byte, x uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], x)
	return append(buf, b[:]...)
}
