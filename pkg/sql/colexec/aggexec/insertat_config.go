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
	"fmt"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/matrixorigin/groupinsert/pkg/container/types"
)

const (
	GroupArrayInsertAtName = "groupArrayInsertAt"

	insertAtArgCount   = 2
	insertAtParamCount = 2
)

// insertAtConfig is fixed when the function is constructed.
type insertAtConfig struct {
	elemType types.Type
	posType  types.Type
	// defaultValue fills the positions no row wrote.
	defaultValue any
	// lengthToResize, when not 0, is the exact length of every result array.
	lengthToResize uint64
}

// newInsertAtConfig resolves the argument types and the optional
// (default value, length) parameters of groupArrayInsertAt.
func newInsertAtConfig(ctx context.Context, argTypes []types.Type, params []any) (*insertAtConfig, error) {
	if len(argTypes) != insertAtArgCount {
		return nil, moerr.NewArgumentCountMismatch(ctx, GroupArrayInsertAtName, insertAtArgCount, len(argTypes))
	}
	if len(params) > insertAtParamCount {
		return nil, moerr.NewTooManyArguments(ctx, GroupArrayInsertAtName, insertAtParamCount, len(params))
	}

	cfg := &insertAtConfig{
		elemType:     argTypes[0],
		posType:      argTypes[1],
		defaultValue: types.DefaultValue(argTypes[0]),
	}

	if len(params) == 2 {
		l, err := types.ConvertValue(ctx, params[1], types.T_uint64.ToType())
		if err != nil {
			return nil, moerr.NewTypeConversion(ctx, params[1], types.T_uint64.String(),
				fmt.Sprintf("length parameter of %s", GroupArrayInsertAtName))
		}
		if l.(uint64) > MaxArraySize {
			return nil, moerr.NewSizeLimitExceeded(ctx, MaxArraySize, "%d", l.(uint64))
		}
		cfg.lengthToResize = l.(uint64)
	}

	if cfg.defaultValue == nil {
		return nil, moerr.NewIllegalArgumentType(ctx, cfg.elemType.String(), 1, GroupArrayInsertAtName,
			"unsupported element type")
	}
	if !cfg.posType.IsUInt() {
		return nil, moerr.NewIllegalArgumentType(ctx, cfg.posType.String(), 2, GroupArrayInsertAtName,
			"must be unsigned integer")
	}

	if len(params) >= 1 && params[0] != nil {
		v, err := types.ConvertValue(ctx, params[0], cfg.elemType)
		if err != nil {
			return nil, moerr.NewTypeConversion(ctx, params[0], cfg.elemType.String(),
				fmt.Sprintf("default value of %s: %v", GroupArrayInsertAtName, err))
		}
		cfg.defaultValue = v
	}
	return cfg, nil
}

// defaultElem returns the default value, string bytes are copied so that
// results never share memory with the config or with each other.
func (cfg *insertAtConfig) defaultElem() any {
	if b, ok := cfg.defaultValue.([]byte); ok {
		return append([]byte{}, b...)
	}
	return cfg.defaultValue
}

func (cfg *insertAtConfig) String() string {
	return fmt.Sprintf("%s(%s, %s) default %v length %d",
		GroupArrayInsertAtName, cfg.elemType, cfg.posType, cfg.defaultValue, cfg.lengthToResize)
}
