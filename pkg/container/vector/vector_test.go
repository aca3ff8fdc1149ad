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
	"testing"

	"github.com/matrixorigin/groupinsert/pkg/container/types"
	"github.com/stretchr/testify/require"
)

func TestVectorAppend(t *testing.T) {
	vec := NewVec(types.T_uint32.ToType())
	require.NoError(t, AppendAny(vec, uint32(7), false))
	require.NoError(t, AppendAny(vec, nil, true))
	require.Error(t, AppendAny(vec, int64(1), false))
	require.Equal(t, 2, vec.Length())
	require.Equal(t, types.T_uint32, vec.GetType().Oid)

	v, isNull := vec.GetAny(0)
	require.False(t, isNull)
	require.Equal(t, uint32(7), v)
	_, isNull = vec.GetAny(1)
	require.True(t, isNull)
	require.Equal(t, 1, vec.GetNulls().Count())
	require.Equal(t, "[7,NULL]", vec.String())
}

func TestConstVector(t *testing.T) {
	vec, err := NewConstFixed(types.T_varchar.ToType(), []byte("x"), 3)
	require.NoError(t, err)
	require.True(t, vec.IsConst())
	require.False(t, vec.IsConstNull())
	v, isNull := vec.GetAny(2)
	require.False(t, isNull)
	require.Equal(t, []byte("x"), v)
	require.Error(t, AppendAny(vec, []byte("y"), false))

	_, err = NewConstFixed(types.T_int8.ToType(), 1, 3)
	require.Error(t, err)

	nv := NewConstNull(types.T_int8.ToType(), 4)
	require.True(t, nv.IsConstNull())
	require.Equal(t, 4, nv.Length())
	_, isNull = nv.GetAny(3)
	require.True(t, isNull)
}

func TestArrayVector(t *testing.T) {
	av := NewArrayVec(types.T_int16.ToType())
	require.Equal(t, 0, av.Length())
	require.NoError(t, av.AppendArray([]any{int16(1), int16(2)}))
	require.NoError(t, av.AppendArray(nil))
	require.NoError(t, av.AppendElem(int16(3)))
	av.PushOffset(1)
	require.Error(t, av.AppendArray([]any{int32(1)}))

	require.Equal(t, 3, av.Length())
	require.Equal(t, []uint64{0, 2, 2, 3}, av.Offsets()[:4])
	require.Equal(t, []any{int16(1), int16(2)}, av.GetArrayAt(0))
	require.Empty(t, av.GetArrayAt(1))
	require.Equal(t, "[3]", av.ArrayString(2))
	require.Equal(t, "[1,2]", av.ArrayString(0))
}
