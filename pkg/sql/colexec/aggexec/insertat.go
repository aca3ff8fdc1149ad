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

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/matrixorigin/groupinsert/pkg/container/types"
	"github.com/matrixorigin/groupinsert/pkg/container/vector"
)

// groupArrayInsertAtExec builds, for every group, an array where index p
// holds the first value observed with position p.
//
// vectors[0] is the value column and vectors[1] the position column.
// A row whose value or position is NULL is ignored.
type groupArrayInsertAtExec struct {
	ctx      context.Context
	argTypes []types.Type
	cfg      *insertAtConfig
	groups   []insertAtState
}

func newGroupArrayInsertAtExec(ctx context.Context, argTypes []types.Type, params []any) (AggFuncExec, error) {
	cfg, err := newInsertAtConfig(ctx, argTypes, params)
	if err != nil {
		return nil, err
	}
	return &groupArrayInsertAtExec{
		ctx:      ctx,
		argTypes: argTypes,
		cfg:      cfg,
	}, nil
}

func (exec *groupArrayInsertAtExec) AggName() string {
	return GroupArrayInsertAtName
}

func (exec *groupArrayInsertAtExec) TypesInfo() ([]types.Type, types.Type) {
	return exec.argTypes, exec.cfg.elemType
}

func (exec *groupArrayInsertAtExec) GroupGrow(more int) error {
	if more < 0 {
		return moerr.NewInternalError(exec.ctx, "group grow by %d", more)
	}
	exec.groups = append(exec.groups, make([]insertAtState, more)...)
	return nil
}

func (exec *groupArrayInsertAtExec) GroupCount() int {
	return len(exec.groups)
}

func (exec *groupArrayInsertAtExec) checkGroup(groupIndex int) error {
	if groupIndex < 0 || groupIndex >= len(exec.groups) {
		return moerr.NewInternalError(exec.ctx, "group index %d out of range [0, %d)", groupIndex, len(exec.groups))
	}
	return nil
}

func (exec *groupArrayInsertAtExec) Fill(groupIndex int, row int, vectors []*vector.Vector) error {
	if len(vectors) != insertAtArgCount {
		return moerr.NewInternalError(exec.ctx, "%s fill with %d columns", GroupArrayInsertAtName, len(vectors))
	}
	if err := exec.checkGroup(groupIndex); err != nil {
		return err
	}
	value, isNull := vectors[0].GetAny(row)
	if isNull {
		return nil
	}
	p, isNull := vectors[1].GetAny(row)
	if isNull {
		return nil
	}
	pos, ok := types.ToUint64(p)
	if !ok {
		return moerr.NewInternalError(exec.ctx, "position %v (%T) is not an unsigned integer", p, p)
	}
	if bs, ok := value.([]byte); ok {
		value = append([]byte{}, bs...)
	}
	return exec.groups[groupIndex].add(exec.ctx, exec.cfg, value, pos)
}

func (exec *groupArrayInsertAtExec) BatchFill(offset int, groups []uint64, vectors []*vector.Vector) error {
	for i, j, idx := offset, offset+len(groups), 0; i < j; i++ {
		if groups[idx] != GroupNotMatched {
			if err := exec.Fill(int(groups[idx]-1), i, vectors); err != nil {
				return err
			}
		}
		idx++
	}
	return nil
}

func (exec *groupArrayInsertAtExec) merge(other *groupArrayInsertAtExec, idx1, idx2 int) error {
	if err := exec.checkGroup(idx1); err != nil {
		return err
	}
	if err := other.checkGroup(idx2); err != nil {
		return err
	}
	exec.groups[idx1].merge(&other.groups[idx2])
	return nil
}

func (exec *groupArrayInsertAtExec) castNext(next AggFuncExec) (*groupArrayInsertAtExec, error) {
	other, ok := next.(*groupArrayInsertAtExec)
	if !ok {
		return nil, moerr.NewInternalError(exec.ctx, "merge %s with %s", GroupArrayInsertAtName, next.AggName())
	}
	if !other.cfg.elemType.Eq(exec.cfg.elemType) {
		return nil, moerr.NewInternalError(exec.ctx, "merge %s states of %s and %s",
			GroupArrayInsertAtName, exec.cfg.elemType, other.cfg.elemType)
	}
	return other, nil
}

func (exec *groupArrayInsertAtExec) Merge(next AggFuncExec, groupIdx1, groupIdx2 int) error {
	other, err := exec.castNext(next)
	if err != nil {
		return err
	}
	return exec.merge(other, groupIdx1, groupIdx2)
}

func (exec *groupArrayInsertAtExec) BatchMerge(next AggFuncExec, offset int, groups []uint64) error {
	other, err := exec.castNext(next)
	if err != nil {
		return err
	}
	for i := range groups {
		if groups[i] == GroupNotMatched {
			continue
		}
		if err := exec.merge(other, int(groups[i])-1, i+offset); err != nil {
			return err
		}
	}
	return nil
}

func (exec *groupArrayInsertAtExec) MarshalGroup(groupIndex int) ([]byte, error) {
	if err := exec.checkGroup(groupIndex); err != nil {
		return nil, err
	}
	return exec.groups[groupIndex].marshal(nil, exec.cfg.elemType)
}

func (exec *groupArrayInsertAtExec) UnmarshalGroup(groupIndex int, data []byte) error {
	if err := exec.checkGroup(groupIndex); err != nil {
		return err
	}
	var s insertAtState
	n, err := s.unmarshal(exec.ctx, data, exec.cfg.elemType)
	if err != nil {
		return err
	}
	if n != len(data) {
		return moerr.NewInvalidInput(exec.ctx, "%d trailing bytes after group state", len(data)-n)
	}
	exec.groups[groupIndex] = s
	return nil
}

func (exec *groupArrayInsertAtExec) Flush() (*vector.ArrayVector, error) {
	av := vector.NewArrayVec(exec.cfg.elemType)
	for i := range exec.groups {
		if err := exec.groups[i].flush(exec.cfg, av); err != nil {
			return nil, err
		}
	}
	return av, nil
}

func (exec *groupArrayInsertAtExec) Free() {
	exec.groups = nil
}
