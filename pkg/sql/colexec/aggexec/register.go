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
	"sync"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/matrixorigin/groupinsert/pkg/container/types"
)

/*
	methods to register the aggregation function.
	after registered, the function `MakeAgg` can make the aggregation function executor.
*/

type aggImplementation struct {
	// make resolves the parameters and returns an executor without groups.
	make func(ctx context.Context, argTypes []types.Type, params []any) (AggFuncExec, error)
	// restore returns an executor from the config written by its marshal.
	restore func(ctx context.Context, argTypes []types.Type, config []byte) (AggFuncExec, error)
}

var (
	registeredAggMu sync.RWMutex
	registeredAgg   = make(map[string]aggImplementation)
)

func registerAgg(name string, impl aggImplementation) {
	registeredAggMu.Lock()
	defer registeredAggMu.Unlock()
	registeredAgg[name] = impl
}

func RegisterGroupArrayInsertAt() {
	registerAgg(GroupArrayInsertAtName, aggImplementation{
		make:    newGroupArrayInsertAtExec,
		restore: restoreGroupArrayInsertAtExec,
	})
}

func getAggImplementation(ctx context.Context, name string) (aggImplementation, error) {
	registeredAggMu.RLock()
	defer registeredAggMu.RUnlock()
	impl, ok := registeredAgg[name]
	if !ok {
		return aggImplementation{}, moerr.NewInvalidInput(ctx, "unknown aggregate function %s", name)
	}
	return impl, nil
}

// MakeAgg makes an executor of the registered function name.
func MakeAgg(ctx context.Context, name string, argTypes []types.Type, params []any) (AggFuncExec, error) {
	impl, err := getAggImplementation(ctx, name)
	if err != nil {
		return nil, err
	}
	return impl.make(ctx, argTypes, params)
}
