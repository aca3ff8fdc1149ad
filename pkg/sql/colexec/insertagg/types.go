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

package insertagg

import (
	"context"

	"github.com/axiomhq/hyperloglog"
	"github.com/panjf2000/ants/v2"

	"github.com/matrixorigin/groupinsert/pkg/config"
	"github.com/matrixorigin/groupinsert/pkg/container/types"
	"github.com/matrixorigin/groupinsert/pkg/sql/colexec/aggexec"
	"github.com/matrixorigin/groupinsert/pkg/sql/colexec/group"
	"github.com/matrixorigin/groupinsert/pkg/sql/colexec/spill"
)

const (
	keyIdx = iota
	valueIdx
	positionIdx
	columnCount
)

// group table keys carry a leading tag so that the NULL key sorts first.
const (
	nullKeyTag  byte = 0
	valueKeyTag byte = 1
)

// Aggregator evaluates groupArrayInsertAt(value, position) GROUP BY key.
//
// An input batch has three columns: key (a string type), value and
// position. Each batch is cut into contiguous row ranges, one per worker,
// and the workers fill their own executor. The executors are folded into
// the first one in range order before the next batch, which keeps the
// result equal to a single goroutine reading the rows in order.
type Aggregator struct {
	ctx      context.Context
	cfg      config.AggConfig
	argTypes []types.Type
	params   []any

	table *group.Table
	// execs[0] holds the merged state, execs[1:] are emptied after each fold.
	execs []aggexec.AggFuncExec
	pool  *ants.Pool
	store *spill.Store
	sk    *hyperloglog.Sketch

	// reused per batch
	groups []uint64
	keyBuf []byte
	// mark[g] is the fold stamp that last merged group g.
	mark  []uint64
	stamp uint64

	rows int
}

// Result is the array of one group.
type Result struct {
	// Key is nil for the NULL key.
	Key    []byte
	IsNull bool
	Values []any
}
