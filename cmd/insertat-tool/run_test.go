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

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/matrixorigin/groupinsert/pkg/config"
)

const testInput = `k,v,p
b,10,1
a,20,0
b,30,1
\N,40,2
a,\N,1
a,50,3
`

func TestRun(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		opts options
		want string
	}{
		{
			name: "no params",
			opts: options{elemType: "int64", posType: "uint8", header: true},
			want: "NULL\t[0,0,40]\na\t[20,0,0,50]\nb\t[0,10]\n",
		},
		{
			name: "default",
			opts: options{elemType: "int64", posType: "uint8", header: true, hasDefault: true, defaultVal: "-1"},
			want: "NULL\t[-1,-1,40]\na\t[20,-1,-1,50]\nb\t[-1,10]\n",
		},
		{
			name: "length",
			opts: options{elemType: "varchar", posType: "uint32", header: true, length: 2},
			want: "NULL\t[\"\",\"\"]\na\t[\"20\",\"\"]\nb\t[\"\",\"10\"]\n",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(ctx, c.opts, config.AggConfig{Workers: 2, BatchSize: 2}, strings.NewReader(testInput), &out)
			require.NoError(t, err)
			require.Equal(t, c.want, out.String())
		})
	}
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	cfg := config.AggConfig{Workers: 1, BatchSize: 16}

	err := run(ctx, options{elemType: "json", posType: "uint8"}, cfg, strings.NewReader(""), &bytes.Buffer{})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	err = run(ctx, options{elemType: "int64", posType: "int8"}, cfg, strings.NewReader(""), &bytes.Buffer{})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrIllegalArgumentType))

	err = run(ctx, options{elemType: "int64", posType: "uint8"}, cfg, strings.NewReader("a,1\n"), &bytes.Buffer{})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	err = run(ctx, options{elemType: "int64", posType: "uint8"}, cfg, strings.NewReader("a,x,1\n"), &bytes.Buffer{})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	err = run(ctx, options{elemType: "int64", posType: "uint32"}, cfg, strings.NewReader("a,1,16777215\n"), &bytes.Buffer{})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrSizeLimitExceeded))

	var out bytes.Buffer
	require.NoError(t, run(ctx, options{elemType: "int64", posType: "uint8"}, cfg, strings.NewReader(""), &out))
	require.Empty(t, out.String())
}

func TestOptionsParams(t *testing.T) {
	require.Nil(t, options{}.params())
	require.Equal(t, []any{"7"}, options{hasDefault: true, defaultVal: "7"}.params())
	require.Equal(t, []any{nil, uint64(3)}, options{length: 3}.params())
	require.Equal(t, []any{"", uint64(3)}, options{hasDefault: true, length: 3}.params())
}
