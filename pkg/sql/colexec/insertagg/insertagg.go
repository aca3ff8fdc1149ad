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
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/axiomhq/hyperloglog"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/matrixorigin/groupinsert/pkg/config"
	"github.com/matrixorigin/groupinsert/pkg/container/batch"
	"github.com/matrixorigin/groupinsert/pkg/container/types"
	"github.com/matrixorigin/groupinsert/pkg/container/vector"
	"github.com/matrixorigin/groupinsert/pkg/logutil"
	"github.com/matrixorigin/groupinsert/pkg/sql/colexec/aggexec"
	"github.com/matrixorigin/groupinsert/pkg/sql/colexec/group"
	"github.com/matrixorigin/groupinsert/pkg/sql/colexec/spill"
)

func init() {
	aggexec.RegisterGroupArrayInsertAt()
}

// New returns an Aggregator for value and position columns of argTypes.
// params are the groupArrayInsertAt parameters (default value, length).
func New(ctx context.Context, cfg config.AggConfig, argTypes []types.Type, params []any) (*Aggregator, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	a := &Aggregator{
		ctx:      ctx,
		cfg:      cfg,
		argTypes: argTypes,
		params:   params,
		table:    group.NewTable(),
		execs:    make([]aggexec.AggFuncExec, workers),
		sk:       hyperloglog.New(),
	}
	for i := range a.execs {
		exec, err := aggexec.MakeAgg(ctx, aggexec.GroupArrayInsertAtName, argTypes, params)
		if err != nil {
			return nil, err
		}
		a.execs[i] = exec
	}
	if workers > 1 {
		pool, err := ants.NewPool(workers)
		if err != nil {
			return nil, moerr.ConvertGoError(ctx, err)
		}
		a.pool = pool
	}
	return a, nil
}

// Consume aggregates the rows of bat.
func (a *Aggregator) Consume(bat *batch.Batch) error {
	if bat == nil || bat.IsEmpty() {
		return nil
	}
	if bat.VectorCount() != columnCount {
		return moerr.NewInternalError(a.ctx, "groupArrayInsertAt input has %d columns, expected %d",
			bat.VectorCount(), columnCount)
	}
	if err := bat.Check(); err != nil {
		return err
	}
	keyVec := bat.GetVector(keyIdx)
	if !keyVec.GetType().IsVarlen() {
		return moerr.NewNotSupported(a.ctx, "group key of type %s", keyVec.GetType())
	}

	n := bat.RowCount()
	if cap(a.groups) < n {
		a.groups = make([]uint64, n)
	}
	a.groups = a.groups[:n]
	before := a.table.GroupCount()
	for row := 0; row < n; row++ {
		v, isNull := keyVec.GetAny(row)
		if isNull {
			a.keyBuf = append(a.keyBuf[:0], nullKeyTag)
		} else {
			a.keyBuf = append(append(a.keyBuf[:0], valueKeyTag), v.([]byte)...)
		}
		g, inserted := a.table.Insert(a.keyBuf)
		if inserted {
			a.sk.Insert(a.keyBuf)
		}
		a.groups[row] = g
	}
	if added := a.table.GroupCount() - before; added > 0 {
		for _, exec := range a.execs {
			if err := exec.GroupGrow(added); err != nil {
				return err
			}
		}
	}

	if err := a.fill(bat.Vecs[valueIdx:], n); err != nil {
		return err
	}
	a.rows += n

	if a.cfg.SpillThreshold > 0 && a.table.GroupCount() >= a.cfg.SpillThreshold {
		return a.spill()
	}
	return nil
}

type rowRange struct {
	lo, hi int
}

// fill runs BatchFill of each row range on its own executor, then folds.
func (a *Aggregator) fill(vecs []*vector.Vector, n int) error {
	workers := len(a.execs)
	if workers == 1 || n < workers {
		return a.execs[0].BatchFill(0, a.groups[:n], vecs)
	}

	chunk := (n + workers - 1) / workers
	ranges := make([]rowRange, 0, workers)
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		ranges = append(ranges, rowRange{lo: lo, hi: hi})
	}

	errs := make([]error, len(ranges))
	var wg sync.WaitGroup
	for i, r := range ranges {
		i, r, exec := i, r, a.execs[i]
		wg.Add(1)
		err := a.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if e := recover(); e != nil {
					errs[i] = moerr.ConvertPanicError(a.ctx, e)
				}
			}()
			errs[i] = exec.BatchFill(r.lo, a.groups[r.lo:r.hi], vecs)
		})
		if err != nil {
			wg.Done()
			errs[i] = moerr.ConvertGoError(a.ctx, err)
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return a.fold(ranges)
}

// fold merges the executors of ranges[1:] into the first executor in range
// order. Earlier rows stay in the destination, so they keep winning.
func (a *Aggregator) fold(ranges []rowRange) error {
	count := a.table.GroupCount()
	if len(a.mark) < count {
		a.mark = append(a.mark, make([]uint64, count-len(a.mark))...)
	}
	dest := a.execs[0]
	for w := 1; w < len(ranges); w++ {
		src := a.execs[w]
		a.stamp++
		for _, g := range a.groups[ranges[w].lo:ranges[w].hi] {
			if g == aggexec.GroupNotMatched || a.mark[g-1] == a.stamp {
				continue
			}
			a.mark[g-1] = a.stamp
			if err := dest.Merge(src, int(g-1), int(g-1)); err != nil {
				return err
			}
		}
		src.Free()
		if err := src.GroupGrow(count); err != nil {
			return err
		}
	}
	return nil
}

// spill moves all in-memory groups to the spill store.
func (a *Aggregator) spill() error {
	if a.store == nil {
		store, err := spill.OpenTemp(a.ctx, a.cfg.SpillDir)
		if err != nil {
			return err
		}
		a.store = store
	}

	count := a.table.GroupCount()
	keys := make([][]byte, 0, count)
	states := make([][]byte, 0, count)
	var err error
	a.table.Ascend(func(key []byte, g uint64) bool {
		var state []byte
		if state, err = a.execs[0].MarshalGroup(int(g - 1)); err != nil {
			return false
		}
		keys = append(keys, key)
		states = append(states, state)
		return true
	})
	if err != nil {
		return err
	}
	if err = a.store.Spill(keys, states); err != nil {
		return err
	}
	logutil.Info("groupArrayInsertAt spilled groups",
		zap.Int("groups", count),
		zap.Int("round", a.store.Rounds()))

	a.table.Reset()
	for _, exec := range a.execs {
		exec.Free()
	}
	a.mark = a.mark[:0]
	return nil
}

// Finish returns the array of every group ordered by key, the NULL key first.
func (a *Aggregator) Finish() ([]Result, error) {
	start := time.Now()
	var results []Result
	var err error
	rounds := 0
	if a.store == nil {
		results, err = a.flushTable()
	} else {
		if a.table.GroupCount() > 0 {
			if err = a.spill(); err != nil {
				return nil, err
			}
		}
		rounds = a.store.Rounds()
		results, err = a.restore()
	}
	if err != nil {
		return nil, err
	}
	logutil.Info("groupArrayInsertAt finished",
		zap.Int("rows", a.rows),
		zap.Int("groups", len(results)),
		zap.Uint64("estimated-groups", a.sk.Estimate()),
		zap.Int("spill-rounds", rounds),
		zap.Duration("duration", time.Since(start)))
	return results, nil
}

func makeResult(key []byte, values []any) Result {
	if key[0] == nullKeyTag {
		return Result{IsNull: true, Values: values}
	}
	return Result{Key: append([]byte{}, key[1:]...), Values: values}
}

func (a *Aggregator) flushTable() ([]Result, error) {
	av, err := a.execs[0].Flush()
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, a.table.GroupCount())
	a.table.Ascend(func(key []byte, g uint64) bool {
		results = append(results, makeResult(key, av.GetArrayAt(int(g-1))))
		return true
	})
	return results, nil
}

// restore merges the spilled partials of each key, earliest round first.
func (a *Aggregator) restore() ([]Result, error) {
	final, err := aggexec.MakeAgg(a.ctx, aggexec.GroupArrayInsertAtName, a.argTypes, a.params)
	if err != nil {
		return nil, err
	}
	defer final.Free()
	partial, err := aggexec.MakeAgg(a.ctx, aggexec.GroupArrayInsertAtName, a.argTypes, a.params)
	if err != nil {
		return nil, err
	}
	defer partial.Free()
	if err = partial.GroupGrow(1); err != nil {
		return nil, err
	}

	var keys [][]byte
	err = a.store.Scan(func(key []byte, partials [][]byte) error {
		if err := final.GroupGrow(1); err != nil {
			return err
		}
		idx := final.GroupCount() - 1
		if err := final.UnmarshalGroup(idx, partials[0]); err != nil {
			return err
		}
		for _, p := range partials[1:] {
			if err := partial.UnmarshalGroup(0, p); err != nil {
				return err
			}
			if err := final.Merge(partial, idx, 0); err != nil {
				return err
			}
		}
		keys = append(keys, append([]byte{}, key...))
		return nil
	})
	if err != nil {
		return nil, err
	}

	av, err := final.Flush()
	if err != nil {
		return nil, err
	}
	results := make([]Result, len(keys))
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return bytes.Compare(keys[order[i]], keys[order[j]]) < 0
	})
	for i, k := range order {
		results[i] = makeResult(keys[k], av.GetArrayAt(k))
	}
	return results, nil
}

// Close releases the worker pool and the spill store.
func (a *Aggregator) Close() error {
	for _, exec := range a.execs {
		exec.Free()
	}
	if a.pool != nil {
		a.pool.Release()
	}
	if a.store != nil {
		err := a.store.Close()
		a.store = nil
		return err
	}
	return nil
}
