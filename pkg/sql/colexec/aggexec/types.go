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
	"github.com/matrixorigin/groupinsert/pkg/container/types"
	"github.com/matrixorigin/groupinsert/pkg/container/vector"
)

const (
	// GroupNotMatched is the value in a BatchFill or BatchMerge groups list
	// for a row that belongs to no group. Other values are group index + 1.
	GroupNotMatched = 0
)

// AggFuncExec is the executor of an aggregation function over a set of groups.
//
// An executor is owned by a single goroutine. Executors running in parallel
// are combined afterwards by Merge or BatchMerge.
type AggFuncExec interface {
	// AggName returns the registered name of the function.
	AggName() string

	// TypesInfo return the argument types and return type of the function.
	// The return type is the element type of the result arrays.
	TypesInfo() ([]types.Type, types.Type)

	// GroupGrow adds more empty groups.
	GroupGrow(more int) error
	// GroupCount returns the number of groups.
	GroupCount() int

	// Fill and BatchFill add the value to the aggregation.
	Fill(groupIndex int, row int, vectors []*vector.Vector) error
	BatchFill(offset int, groups []uint64, vectors []*vector.Vector) error

	// Merge merges the groupIdx2 group of next into the groupIdx1 group.
	// The receiver is the destination and wins on conflicting slots.
	Merge(next AggFuncExec, groupIdx1, groupIdx2 int) error
	// BatchMerge merges group offset+i of next into group groups[i]-1.
	BatchMerge(next AggFuncExec, offset int, groups []uint64) error

	// MarshalGroup and UnmarshalGroup encode and decode the state of one group.
	MarshalGroup(groupIndex int) ([]byte, error)
	UnmarshalGroup(groupIndex int, data []byte) error

	// Flush return the aggregation result, one array per group.
	Flush() (*vector.ArrayVector, error)

	// Free free the aggregation.
	// The executor holds no groups after Free and can be grown again.
	Free()

	marshal() ([]byte, error)
	unmarshal(groups [][]byte) error
}
