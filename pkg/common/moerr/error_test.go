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

package moerr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFatal(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "ErrArgumentCountMismatch",
			err:      NewArgumentCountMismatch(ctx, "groupArrayInsertAt", 2, 1),
			expected: true,
		},
		{
			name:     "ErrTooManyArguments",
			err:      NewTooManyArguments(ctx, "groupArrayInsertAt", 2, 3),
			expected: true,
		},
		{
			name:     "ErrIllegalArgumentType",
			err:      NewIllegalArgumentType(ctx, "INT", 2, "groupArrayInsertAt", "must be unsigned integer"),
			expected: true,
		},
		{
			name:     "ErrTypeConversion",
			err:      NewTypeConversion(ctx, "abc", "INT", "invalid syntax"),
			expected: true,
		},
		{
			name:     "ErrSizeLimitExceeded",
			err:      NewSizeLimitExceeded(ctx, 0xFFFFFF, "position %d", 1<<24),
			expected: true,
		},
		{
			name:     "wrapped moerr",
			err:      fmt.Errorf("spill: %w", NewSizeLimitExceededNoCtx(10, "count %d", 11)),
			expected: true,
		},
		{
			name:     "standard error",
			err:      errors.New("some error"),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewSizeLimitExceeded(context.TODO(), 0xFFFFFF, "position argument (%d) is greater or equals to limit", 16777215)
	require.Equal(t, "too large array size: position argument (16777215) is greater or equals to limit (maximum: 16777215)", err.Error())
	require.Equal(t, ErrSizeLimitExceeded, err.ErrorCode())
	require.Equal(t, ER_DATA_OUT_OF_RANGE, err.MySQLCode())
	require.Equal(t, "22003", err.SqlState())
	require.Equal(t, err.Error(), err.Display())

	err = NewArgumentCountMismatch(context.TODO(), "groupArrayInsertAt", 2, 3)
	require.Equal(t, "aggregate function groupArrayInsertAt requires 2 arguments, got 3", err.Error())
}

func TestIsMoErrCode(t *testing.T) {
	require.True(t, IsMoErrCode(nil, Ok))
	require.False(t, IsMoErrCode(errors.New("x"), ErrInternal))
	require.True(t, IsMoErrCode(NewInvalidInputNoCtx("bad marker %d", 7), ErrInvalidInput))
	require.True(t, IsMoErrCode(fmt.Errorf("wrap: %w", NewBadConfig(context.TODO(), "workers")), ErrBadConfig))
}

func TestConvertGoError(t *testing.T) {
	ctx := context.TODO()
	require.Nil(t, ConvertGoError(ctx, nil))
	require.True(t, IsMoErrCode(ConvertGoError(ctx, io.ErrUnexpectedEOF), ErrUnexpectedEOF))
	require.True(t, IsMoErrCode(ConvertGoError(ctx, errors.New("boom")), ErrInternal))

	e := NewTypeConversion(ctx, 1, "BOOL", "x")
	require.Equal(t, e, ConvertGoError(ctx, e))
	require.Equal(t, e, DowncastError(e))
	require.True(t, IsMoErrCode(DowncastError(errors.New("y")), ErrInternal))
}

func TestConvertPanicError(t *testing.T) {
	e := NewInternalErrorNoCtx("x")
	require.Equal(t, e, ConvertPanicError(context.TODO(), e))
	require.Equal(t, "internal error: panic oops", ConvertPanicError(context.TODO(), "oops").Error())
}
